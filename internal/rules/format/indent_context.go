package format

import (
	"fmt"
	"strings"

	"github.com/donaldgifford/kfmt/internal/syntax"
)

// indentContext is an indent scope covering the leaves from the first
// leaf of from through the leaf to.
type indentContext struct {
	from syntax.NodeID
	to   syntax.NodeID

	// nodeIndent is the cumulative indent of the scope. The other three
	// are added to it for the line starting at the first leaf, at to, and
	// anywhere else in the scope.
	nodeIndent       string
	firstChildIndent string
	childIndent      string
	lastChildIndent  string

	// activated is set once a line break is seen while the context is on
	// top. Until then nested scopes only inherit nodeIndent.
	activated bool
}

// indent is the indent a nested scope starts from.
func (c *indentContext) indent() string {
	if c.activated {
		return c.nodeIndent + c.childIndent
	}
	return c.nodeIndent
}

// expected returns the indent of the line that starts after the
// whitespace leaf ws.
func (c *indentContext) expected(tr *syntax.Tree, ws syntax.NodeID) string {
	next := tr.NextLeaf(ws)
	first := tr.FirstLeaf(c.from)
	switch {
	case ws == first || next == first:
		return c.nodeIndent + c.firstChildIndent
	case ws == c.to || next == c.to:
		return c.nodeIndent + c.lastChildIndent
	}
	return c.nodeIndent + c.childIndent
}

// indentStack is the LIFO stack of open indent scopes.
type indentStack struct {
	contexts []indentContext
}

func (s *indentStack) push(c indentContext) {
	s.contexts = append(s.contexts, c)
}

// top returns the innermost scope. The stack must not be empty.
func (s *indentStack) top() *indentContext {
	return &s.contexts[len(s.contexts)-1]
}

func (s *indentStack) empty() bool { return len(s.contexts) == 0 }

// popEndingAt removes every scope ending at n. Several scopes may end at
// the same leaf.
func (s *indentStack) popEndingAt(n syntax.NodeID) {
	for !s.empty() && s.top().to == n {
		s.contexts = s.contexts[:len(s.contexts)-1]
	}
}

// lastWhere returns the innermost scope matching keep, or nil.
func (s *indentStack) lastWhere(keep func(*indentContext) bool) *indentContext {
	for i := len(s.contexts) - 1; i >= 0; i-- {
		if keep(&s.contexts[i]) {
			return &s.contexts[i]
		}
	}
	return nil
}

// describe renders the open scopes for an invariant error.
func (s *indentStack) describe(tr *syntax.Tree) string {
	var b strings.Builder
	for i, c := range s.contexts {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s from %d to %d", tr.Kind(c.from), tr.Start(c.from), tr.End(c.to))
	}
	return b.String()
}
