package syntax

import "fmt"

// AppendChild adds the detached node child as the last child of parent.
func (t *Tree) AppendChild(parent, child NodeID) {
	t.AddChild(parent, child, None)
}

// AddChild inserts the detached node child under parent, before the
// existing child before. A before of None appends.
func (t *Tree) AddChild(parent, child, before NodeID) {
	t.check(parent)
	t.check(child)
	if t.nodes[parent].kind.IsLeaf() {
		panic(fmt.Errorf("syntax: cannot add child to leaf %s", t.nodes[parent].kind))
	}
	if t.nodes[child].parent != None || child == t.root {
		panic(fmt.Errorf("syntax: node %d (%s) is already attached", child, t.nodes[child].kind))
	}
	if before != None && t.nodes[before].parent != parent {
		panic(fmt.Errorf("syntax: node %d is not a child of %d", before, parent))
	}

	c := &t.nodes[child]
	c.parent = parent
	if before == None {
		c.prev = t.nodes[parent].last
		c.next = None
		if c.prev != None {
			t.nodes[c.prev].next = child
		} else {
			t.nodes[parent].first = child
		}
		t.nodes[parent].last = child
	} else {
		c.next = before
		c.prev = t.nodes[before].prev
		if c.prev != None {
			t.nodes[c.prev].next = child
		} else {
			t.nodes[parent].first = child
		}
		t.nodes[before].prev = child
	}
	t.touch()
}

// InsertBefore inserts the detached node n as the sibling preceding ref.
func (t *Tree) InsertBefore(ref, n NodeID) {
	p := t.Parent(ref)
	if p == None {
		panic(fmt.Errorf("syntax: InsertBefore on detached node %d", ref))
	}
	t.AddChild(p, n, ref)
}

// InsertAfter inserts the detached node n as the sibling following ref.
func (t *Tree) InsertAfter(ref, n NodeID) {
	p := t.Parent(ref)
	if p == None {
		panic(fmt.Errorf("syntax: InsertAfter on detached node %d", ref))
	}
	t.AddChild(p, n, t.nodes[ref].next)
}

// Remove detaches id (and its subtree) from its parent. Removing a
// detached node is a no-op.
func (t *Tree) Remove(id NodeID) {
	t.check(id)
	n := &t.nodes[id]
	if n.parent == None {
		return
	}
	if n.prev != None {
		t.nodes[n.prev].next = n.next
	} else {
		t.nodes[n.parent].first = n.next
	}
	if n.next != None {
		t.nodes[n.next].prev = n.prev
	} else {
		t.nodes[n.parent].last = n.prev
	}
	n.parent, n.prev, n.next = None, None, None
	t.touch()
}

// SetText replaces the text of the leaf id.
func (t *Tree) SetText(id NodeID, text string) {
	t.check(id)
	if !t.nodes[id].kind.IsLeaf() {
		panic(fmt.Errorf("syntax: SetText on composite %s", t.nodes[id].kind))
	}
	if t.nodes[id].text == text {
		return
	}
	t.nodes[id].text = text
	t.touch()
}

// Wrap moves the children of parent starting at from (through the last
// child) into a new composite of the given kind, which takes their place.
func (t *Tree) Wrap(from NodeID, kind Kind) NodeID {
	parent := t.Parent(from)
	if parent == None {
		panic(fmt.Errorf("syntax: Wrap on detached node %d", from))
	}
	w := t.NewNode(kind)
	var moved []NodeID
	for c := from; c != None; c = t.nodes[c].next {
		moved = append(moved, c)
	}
	for _, c := range moved {
		t.Remove(c)
	}
	t.AppendChild(parent, w)
	for _, c := range moved {
		t.AppendChild(w, c)
	}
	return w
}

// UpsertWhitespaceBefore makes the whitespace preceding id equal to text.
// An existing whitespace leaf is rewritten (or removed when text is
// empty); otherwise a new leaf is inserted before id.
func (t *Tree) UpsertWhitespaceBefore(id NodeID, text string) {
	prev := t.PrevLeaf(id)
	if prev != None && t.Kind(prev) == Whitespace {
		if text == "" {
			t.Remove(prev)
			return
		}
		t.SetText(prev, text)
		return
	}
	if text == "" {
		return
	}
	t.InsertBefore(id, t.NewLeaf(Whitespace, text))
}

// UpsertWhitespaceAfter makes the whitespace following id equal to text.
func (t *Tree) UpsertWhitespaceAfter(id NodeID, text string) {
	next := t.NextLeaf(id)
	if next != None && t.Kind(next) == Whitespace {
		if text == "" {
			t.Remove(next)
			return
		}
		t.SetText(next, text)
		return
	}
	if text == "" {
		return
	}
	t.InsertAfter(id, t.NewLeaf(Whitespace, text))
}
