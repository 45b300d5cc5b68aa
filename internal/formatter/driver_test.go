package formatter

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/parser"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

func drive(t *testing.T, src string, fix bool, rules ...*stubRule) (*driver, error) {
	t.Helper()
	tree, err := parser.Parse(src)
	require.NoError(t, err)
	d := newDriver(tree, config.DefaultConfig().Settings(), fix, zerolog.Nop())
	_, err = d.run(context.Background(), asRules(rules...))
	return d, err
}

func TestDriverVisitOrder(t *testing.T) {
	var events []string
	r := stub("standard:trace")
	r.before = func(tree *syntax.Tree, n syntax.NodeID, _ Emit) error {
		if !tree.IsLeaf(n) {
			events = append(events, "+"+tree.Kind(n).String())
		}
		return nil
	}
	r.after = func(tree *syntax.Tree, n syntax.NodeID, _ Emit) error {
		if !tree.IsLeaf(n) {
			events = append(events, "-"+tree.Kind(n).String())
		}
		return nil
	}
	r.last = func(*syntax.Tree, Emit) error {
		events = append(events, "done")
		return nil
	}

	_, err := drive(t, "val a = b\n", false, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"+FILE", "+PROPERTY", "-PROPERTY", "-FILE", "done"}, events)
}

func TestDriverRemovalContinuesWithNextSibling(t *testing.T) {
	var visited []string
	r := stub("standard:no-spaces")
	r.before = func(tree *syntax.Tree, n syntax.NodeID, emit Emit) error {
		if tree.IsLeaf(n) {
			visited = append(visited, tree.Text(n))
		}
		if tree.Is(n, syntax.Whitespace) && !tree.IsWhitespaceWithNewline(n) {
			if emit(tree.Start(n), "Unexpected space", true) == Apply {
				tree.Remove(n)
			}
		}
		return nil
	}

	d, err := drive(t, "val a = b\n", true, r)
	require.NoError(t, err)
	assert.Equal(t, "vala=b\n", d.tree.String())
	assert.Equal(t, []string{"val", " ", "a", " ", "=", " ", "b", "\n"}, visited)
	require.Len(t, d.findings, 3)
	assert.Equal(t, Finding{Offset: 3, Line: 1, Col: 4, RuleID: "standard:no-spaces", Message: "Unexpected space", Fixable: true, Corrected: true}, d.findings[0])
	// Offsets are taken from the tree as mutated so far.
	assert.Equal(t, 4, d.findings[1].Offset)
}

func TestDriverVisitsInsertedSiblings(t *testing.T) {
	var visited []string
	r := stub("standard:insert")
	r.after = func(tree *syntax.Tree, n syntax.NodeID, emit Emit) error {
		visited = append(visited, tree.Text(n))
		if tree.LeafText(n, "a") && emit(tree.End(n), "Missing suffix", true) == Apply {
			tree.InsertAfter(n, tree.NewLeaf(syntax.Identifier, "_x"))
		}
		return nil
	}

	d, err := drive(t, "val a = b\n", true, r)
	require.NoError(t, err)
	assert.Equal(t, "val a_x = b\n", d.tree.String())
	assert.Contains(t, visited, "_x")
}

func TestDriverStopTraversal(t *testing.T) {
	var count int
	lastCalled := false
	r := stub("standard:stop")
	r.before = func(tree *syntax.Tree, n syntax.NodeID, _ Emit) error {
		count++
		if tree.Is(n, syntax.Identifier) {
			return ErrStopTraversal
		}
		return nil
	}
	r.last = func(*syntax.Tree, Emit) error {
		lastCalled = true
		return nil
	}
	other := stub("standard:other")
	otherRan := false
	other.last = func(*syntax.Tree, Emit) error {
		otherRan = true
		return nil
	}

	_, err := drive(t, "val a = b\nval c = d\n", false, r, other)
	require.NoError(t, err)
	assert.Equal(t, 5, count) // file, property, val, whitespace, a
	assert.True(t, lastCalled)
	assert.True(t, otherRan)
}

func TestDriverLintModeDecision(t *testing.T) {
	var decisions []Decision
	r := stub("standard:lint")
	r.last = func(_ *syntax.Tree, emit Emit) error {
		decisions = append(decisions, emit(0, "fixable", true), emit(0, "not fixable", false))
		return nil
	}

	d, err := drive(t, "val a = 1\n", false, r)
	require.NoError(t, err)
	assert.Equal(t, []Decision{Skip, Skip}, decisions)
	require.Len(t, d.findings, 2)
	assert.False(t, d.findings[0].Corrected)
}

func TestDriverNonFixableNeverApplies(t *testing.T) {
	var got Decision
	r := stub("standard:ambiguous")
	r.last = func(_ *syntax.Tree, emit Emit) error {
		got = emit(0, "ambiguous", false)
		return nil
	}

	_, err := drive(t, "val a = 1\n", true, r)
	require.NoError(t, err)
	assert.Equal(t, Skip, got)
}

func TestDriverSuppressedFindingIsDropped(t *testing.T) {
	var got []Decision
	r := stub("standard:spaces")
	r.before = func(tree *syntax.Tree, n syntax.NodeID, emit Emit) error {
		if tree.LeafText(n, "=") {
			got = append(got, emit(tree.Start(n), "found", true))
		}
		return nil
	}

	d, err := drive(t, "val a = 1 // kfmt-disable spaces\nval b = 2\n", true, r)
	require.NoError(t, err)
	assert.Equal(t, []Decision{Skip, Apply}, got)
	require.Len(t, d.findings, 1)
	assert.Equal(t, 2, d.findings[0].Line)
}

func TestDriverMutationInLintModeIsInvariantViolation(t *testing.T) {
	r := stub("standard:rogue")
	r.last = func(tree *syntax.Tree, _ Emit) error {
		tree.AppendChild(tree.Root(), tree.NewLeaf(syntax.Whitespace, "\n"))
		return nil
	}

	_, err := drive(t, "val a = 1\n", false, r)
	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "standard:rogue", inv.RuleID)
}

func TestDriverPanicBecomesInvariantError(t *testing.T) {
	r := stub("standard:panics")
	r.before = func(*syntax.Tree, syntax.NodeID, Emit) error {
		panic("indent stack imbalance")
	}

	_, err := drive(t, "val a = 1\n", true, r)
	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "standard:panics", inv.RuleID)
	assert.EqualError(t, err, "rule standard:panics: panic: indent stack imbalance")
}

func TestDriverUndeclaredKeyRead(t *testing.T) {
	r := stub("standard:reads")
	r.Uses = []*config.Key{config.IndentSizeKey}
	r.first = func(cfg *config.Snapshot) {
		cfg.Int(config.MaxLineLengthKey)
	}

	_, err := drive(t, "val a = 1\n", true, r)
	var undeclared *config.UndeclaredKeyError
	require.ErrorAs(t, err, &undeclared)
	assert.Equal(t, "max_line_length", undeclared.Key)
}

func TestDriverRuleErrorAbortsRun(t *testing.T) {
	boom := errors.New("required child node absent")
	r := stub("standard:fails")
	r.after = func(*syntax.Tree, syntax.NodeID, Emit) error { return boom }
	next := stub("standard:next")
	ran := false
	next.last = func(*syntax.Tree, Emit) error {
		ran = true
		return nil
	}

	_, err := drive(t, "val a = 1\n", true, r, next)
	require.ErrorIs(t, err, boom)
	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "standard:fails", inv.RuleID)
	assert.False(t, ran)
}
