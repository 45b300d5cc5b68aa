package syntax

import (
	"fmt"
	"strings"
)

// NodeID is a handle into a Tree's node arena. Handles stay valid for the
// lifetime of the tree, but a removed node is detached and no longer
// reachable from the root.
type NodeID int32

// None is the null handle returned by navigation that runs off the tree.
const None NodeID = -1

type node struct {
	kind   Kind
	text   string
	parent NodeID
	first  NodeID
	last   NodeID
	prev   NodeID
	next   NodeID
}

// Tree is an arena-indexed concrete syntax tree. Leaf text concatenated in
// document order is the source text.
type Tree struct {
	nodes []node
	root  NodeID

	rev uint64

	// Position cache, valid while posRev == rev.
	posRev uint64
	start  []int
	end    []int
	src    string
}

// New returns a tree containing only a composite root of the given kind.
func New(rootKind Kind) *Tree {
	t := &Tree{rev: 1}
	t.root = t.NewNode(rootKind)
	return t
}

// Root returns the root node.
func (t *Tree) Root() NodeID { return t.root }

// Revision returns a counter that changes on every mutation.
func (t *Tree) Revision() uint64 { return t.rev }

func (t *Tree) alloc(kind Kind, text string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{
		kind:   kind,
		text:   text,
		parent: None,
		first:  None,
		last:   None,
		prev:   None,
		next:   None,
	})
	return id
}

// NewLeaf allocates a detached leaf.
func (t *Tree) NewLeaf(kind Kind, text string) NodeID {
	if !kind.IsLeaf() {
		panic(fmt.Errorf("syntax: NewLeaf called with composite kind %s", kind))
	}
	return t.alloc(kind, text)
}

// NewNode allocates a detached composite node without children.
func (t *Tree) NewNode(kind Kind) NodeID {
	if kind.IsLeaf() {
		panic(fmt.Errorf("syntax: NewNode called with leaf kind %s", kind))
	}
	return t.alloc(kind, "")
}

func (t *Tree) check(id NodeID) {
	if id < 0 || int(id) >= len(t.nodes) {
		panic(fmt.Errorf("syntax: invalid node handle %d", id))
	}
}

// Kind returns the kind of id.
func (t *Tree) Kind(id NodeID) Kind {
	t.check(id)
	return t.nodes[id].kind
}

// Is reports whether id is a valid handle of one of the given kinds.
func (t *Tree) Is(id NodeID, kinds ...Kind) bool {
	if id == None {
		return false
	}
	k := t.Kind(id)
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// IsLeaf reports whether id is a leaf.
func (t *Tree) IsLeaf(id NodeID) bool { return t.Kind(id).IsLeaf() }

// Parent returns the parent of id, or None.
func (t *Tree) Parent(id NodeID) NodeID { t.check(id); return t.nodes[id].parent }

// FirstChild returns the first child of id, or None.
func (t *Tree) FirstChild(id NodeID) NodeID { t.check(id); return t.nodes[id].first }

// LastChild returns the last child of id, or None.
func (t *Tree) LastChild(id NodeID) NodeID { t.check(id); return t.nodes[id].last }

// NextSibling returns the sibling following id, or None.
func (t *Tree) NextSibling(id NodeID) NodeID { t.check(id); return t.nodes[id].next }

// PrevSibling returns the sibling preceding id, or None.
func (t *Tree) PrevSibling(id NodeID) NodeID { t.check(id); return t.nodes[id].prev }

// Children returns a snapshot of the children of id.
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := t.FirstChild(id); c != None; c = t.nodes[c].next {
		out = append(out, c)
	}
	return out
}

// Text returns the text of id. For composites this is the concatenated
// text of all leaves below it.
func (t *Tree) Text(id NodeID) string {
	n := t.nodes[id]
	if n.kind.IsLeaf() {
		return n.text
	}
	var b strings.Builder
	t.writeText(&b, id)
	return b.String()
}

func (t *Tree) writeText(b *strings.Builder, id NodeID) {
	n := t.nodes[id]
	if n.kind.IsLeaf() {
		b.WriteString(n.text)
		return
	}
	for c := n.first; c != None; c = t.nodes[c].next {
		t.writeText(b, c)
	}
}

// Len returns the text length of id in bytes.
func (t *Tree) Len(id NodeID) int {
	n := t.nodes[id]
	if n.kind.IsLeaf() {
		return len(n.text)
	}
	total := 0
	for c := n.first; c != None; c = t.nodes[c].next {
		total += t.Len(c)
	}
	return total
}

// TextContains reports whether the text of id contains s.
func (t *Tree) TextContains(id NodeID, s string) bool {
	return strings.Contains(t.Text(id), s)
}

// String returns the full source text of the tree.
func (t *Tree) String() string {
	t.positions()
	return t.src
}

func (t *Tree) touch() { t.rev++ }

func (t *Tree) positions() {
	if t.posRev == t.rev {
		return
	}
	if cap(t.start) < len(t.nodes) {
		t.start = make([]int, len(t.nodes))
		t.end = make([]int, len(t.nodes))
	} else {
		t.start = t.start[:len(t.nodes)]
		t.end = t.end[:len(t.nodes)]
	}
	for i := range t.start {
		t.start[i] = -1
		t.end[i] = -1
	}
	var b strings.Builder
	var visit func(id NodeID)
	visit = func(id NodeID) {
		t.start[id] = b.Len()
		n := t.nodes[id]
		if n.kind.IsLeaf() {
			b.WriteString(n.text)
		} else {
			for c := n.first; c != None; c = t.nodes[c].next {
				visit(c)
			}
		}
		t.end[id] = b.Len()
	}
	visit(t.root)
	t.src = b.String()
	t.posRev = t.rev
}

// Start returns the start offset of id in the current source text, or -1
// when id is not attached to the root.
func (t *Tree) Start(id NodeID) int {
	t.check(id)
	t.positions()
	return t.start[id]
}

// End returns the offset just past id, or -1 when id is detached.
func (t *Tree) End(id NodeID) int {
	t.check(id)
	t.positions()
	return t.end[id]
}

// Column returns the 0-based column of the start of id.
func (t *Tree) Column(id NodeID) int {
	off := t.Start(id)
	if off < 0 {
		return -1
	}
	return off - (strings.LastIndexByte(t.src[:off], '\n') + 1)
}

// Attached reports whether id is reachable from the root.
func (t *Tree) Attached(id NodeID) bool {
	for n := id; n != None; n = t.nodes[n].parent {
		if n == t.root {
			return true
		}
	}
	return false
}
