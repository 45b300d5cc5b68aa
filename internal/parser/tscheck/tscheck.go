// Package tscheck validates Kotlin source with the tree-sitter Kotlin
// grammar. It is used as an optional front-end gate before formatting and
// as a sanity check on formatted output.
package tscheck

import (
	"context"
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"
)

// maxProblems bounds collection on heavily malformed input.
const maxProblems = 20

// Problem is an ERROR or MISSING node reported by tree-sitter.
type Problem struct {
	Line    int
	Column  int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%d:%d: %s", p.Line, p.Column, p.Message)
}

// Error is returned by Check when the grammar rejects the input.
type Error struct {
	Problems []Problem
}

func (e *Error) Error() string {
	if len(e.Problems) == 1 {
		return "syntax check: " + e.Problems[0].String()
	}
	return fmt.Sprintf("syntax check: %s (and %d more)", e.Problems[0], len(e.Problems)-1)
}

// Check parses src and returns an *Error if the tree contains error or
// missing nodes.
func Check(ctx context.Context, src string) error {
	parser := sitter.NewParser()
	parser.SetLanguage(kotlin.GetLanguage())

	content := []byte(src)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	var problems []Problem
	collect(root, content, &problems, 0)
	if len(problems) == 0 {
		// HasError without a visible node: report the root.
		problems = append(problems, Problem{Line: 1, Column: 1, Message: "syntax error"})
	}
	return &Error{Problems: problems}
}

func collect(node *sitter.Node, content []byte, out *[]Problem, depth int) {
	if depth > 1000 || len(*out) >= maxProblems {
		return
	}
	if node.IsError() || node.IsMissing() {
		*out = append(*out, problem(node, content))
	}
	if !node.HasError() {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collect(node.Child(i), content, out, depth+1)
	}
}

func problem(node *sitter.Node, content []byte) Problem {
	pt := node.StartPoint()
	line, err := safecast.Conv[int](pt.Row)
	if err != nil {
		line = 0
	}
	col, err := safecast.Conv[int](pt.Column)
	if err != nil {
		col = 0
	}

	msg := "unexpected input"
	if node.IsMissing() {
		msg = fmt.Sprintf("missing %q", node.Type())
	} else {
		start, err1 := safecast.Conv[int](node.StartByte())
		end, err2 := safecast.Conv[int](node.EndByte())
		end = min(end, len(content))
		if err1 == nil && err2 == nil && end > start && end-start <= 40 {
			msg = fmt.Sprintf("unexpected %q", content[start:end])
		}
	}
	return Problem{Line: line + 1, Column: col + 1, Message: msg}
}
