package syntax

import "strings"

// FirstLeaf returns the first leaf in the subtree of id (id itself when it
// is a leaf), or None for an empty composite.
func (t *Tree) FirstLeaf(id NodeID) NodeID {
	if t.IsLeaf(id) {
		return id
	}
	for c := t.FirstChild(id); c != None; c = t.NextSibling(c) {
		if l := t.FirstLeaf(c); l != None {
			return l
		}
	}
	return None
}

// LastLeaf returns the last leaf in the subtree of id, or None.
func (t *Tree) LastLeaf(id NodeID) NodeID {
	if t.IsLeaf(id) {
		return id
	}
	for c := t.LastChild(id); c != None; c = t.PrevSibling(c) {
		if l := t.LastLeaf(c); l != None {
			return l
		}
	}
	return None
}

// NextLeaf returns the leaf following the subtree of id in document order.
func (t *Tree) NextLeaf(id NodeID) NodeID {
	for n := id; n != None; n = t.Parent(n) {
		for s := t.NextSibling(n); s != None; s = t.NextSibling(s) {
			if l := t.FirstLeaf(s); l != None {
				return l
			}
		}
	}
	return None
}

// PrevLeaf returns the leaf preceding the subtree of id in document order.
func (t *Tree) PrevLeaf(id NodeID) NodeID {
	for n := id; n != None; n = t.Parent(n) {
		for s := t.PrevSibling(n); s != None; s = t.PrevSibling(s) {
			if l := t.LastLeaf(s); l != None {
				return l
			}
		}
	}
	return None
}

// NextCodeLeaf returns the next leaf that is neither whitespace nor a
// comment.
func (t *Tree) NextCodeLeaf(id NodeID) NodeID {
	l := t.NextLeaf(id)
	for l != None && t.Kind(l).IsTrivia() {
		l = t.NextLeaf(l)
	}
	return l
}

// PrevCodeLeaf returns the previous leaf that is neither whitespace nor a
// comment.
func (t *Tree) PrevCodeLeaf(id NodeID) NodeID {
	l := t.PrevLeaf(id)
	for l != None && t.Kind(l).IsTrivia() {
		l = t.PrevLeaf(l)
	}
	return l
}

// NextCodeSibling returns the next sibling that is not trivia.
func (t *Tree) NextCodeSibling(id NodeID) NodeID {
	s := t.NextSibling(id)
	for s != None && t.Kind(s).IsTrivia() {
		s = t.NextSibling(s)
	}
	return s
}

// PrevCodeSibling returns the previous sibling that is not trivia.
func (t *Tree) PrevCodeSibling(id NodeID) NodeID {
	s := t.PrevSibling(id)
	for s != None && t.Kind(s).IsTrivia() {
		s = t.PrevSibling(s)
	}
	return s
}

// FindChild returns the first child of id having one of the kinds.
func (t *Tree) FindChild(id NodeID, kinds ...Kind) NodeID {
	for c := t.FirstChild(id); c != None; c = t.NextSibling(c) {
		if t.Is(c, kinds...) {
			return c
		}
	}
	return None
}

// FindLastChild returns the last child of id having one of the kinds.
func (t *Tree) FindLastChild(id NodeID, kinds ...Kind) NodeID {
	for c := t.LastChild(id); c != None; c = t.PrevSibling(c) {
		if t.Is(c, kinds...) {
			return c
		}
	}
	return None
}

// ChildrenOf returns the children of id having one of the kinds.
func (t *Tree) ChildrenOf(id NodeID, kinds ...Kind) []NodeID {
	var out []NodeID
	for c := t.FirstChild(id); c != None; c = t.NextSibling(c) {
		if t.Is(c, kinds...) {
			out = append(out, c)
		}
	}
	return out
}

// NextSiblingOf returns the first following sibling having one of the
// kinds.
func (t *Tree) NextSiblingOf(id NodeID, kinds ...Kind) NodeID {
	for s := t.NextSibling(id); s != None; s = t.NextSibling(s) {
		if t.Is(s, kinds...) {
			return s
		}
	}
	return None
}

// Ancestor returns the closest proper ancestor of id having one of the
// kinds.
func (t *Tree) Ancestor(id NodeID, kinds ...Kind) NodeID {
	for p := t.Parent(id); p != None; p = t.Parent(p) {
		if t.Is(p, kinds...) {
			return p
		}
	}
	return None
}

// Contains reports whether b is a, or is a descendant of a.
func (t *Tree) Contains(a, b NodeID) bool {
	for n := b; n != None; n = t.Parent(n) {
		if n == a {
			return true
		}
	}
	return false
}

// Leaves returns all leaves under id in document order.
func (t *Tree) Leaves(id NodeID) []NodeID {
	var out []NodeID
	var visit func(n NodeID)
	visit = func(n NodeID) {
		if t.IsLeaf(n) {
			out = append(out, n)
			return
		}
		for c := t.FirstChild(n); c != None; c = t.NextSibling(c) {
			visit(c)
		}
	}
	visit(id)
	return out
}

// IsWhitespace reports whether id is a whitespace leaf.
func (t *Tree) IsWhitespace(id NodeID) bool { return t.Is(id, Whitespace) }

// IsWhitespaceWithNewline reports whether id is a whitespace leaf
// containing a line break.
func (t *Tree) IsWhitespaceWithNewline(id NodeID) bool {
	return t.Is(id, Whitespace) && strings.Contains(t.nodes[id].text, "\n")
}

// IsComment reports whether id is a comment leaf.
func (t *Tree) IsComment(id NodeID) bool {
	return id != None && t.Kind(id).IsComment()
}

// IsCode reports whether id is a node that is neither whitespace nor a
// comment.
func (t *Tree) IsCode(id NodeID) bool {
	return id != None && !t.Kind(id).IsTrivia()
}

// LeafText reports whether id is a leaf with exactly the given text.
func (t *Tree) LeafText(id NodeID, text string) bool {
	return id != None && t.IsLeaf(id) && t.nodes[id].text == text
}

// Indent returns the whitespace that starts the line on which id begins,
// without the line break.
func (t *Tree) Indent(id NodeID) string {
	off := t.Start(id)
	if off < 0 {
		return ""
	}
	lineStart := strings.LastIndexByte(t.src[:off], '\n') + 1
	line := t.src[lineStart:off]
	trimmed := strings.TrimLeft(line, " \t")
	return line[:len(line)-len(trimmed)]
}

// LineText returns the full source line containing offset, without its
// line break.
func (t *Tree) LineText(offset int) string {
	t.positions()
	if offset < 0 || offset > len(t.src) {
		return ""
	}
	start := strings.LastIndexByte(t.src[:offset], '\n') + 1
	end := strings.IndexByte(t.src[offset:], '\n')
	if end < 0 {
		return t.src[start:]
	}
	return t.src[start : offset+end]
}
