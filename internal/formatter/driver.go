package formatter

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/suppress"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// driver walks one tree with each scheduled rule in turn.
type driver struct {
	tree     *syntax.Tree
	settings *config.Settings
	fix      bool
	log      zerolog.Logger

	rev     uint64
	lines   *lineIndex
	locator *suppress.Locator

	findings []Finding
}

func newDriver(tree *syntax.Tree, settings *config.Settings, fix bool, log zerolog.Logger) *driver {
	return &driver{tree: tree, settings: settings, fix: fix, log: log}
}

// refresh rebuilds the position index and suppression regions when the
// tree changed since they were computed.
func (d *driver) refresh() {
	if d.lines != nil && d.rev == d.tree.Revision() {
		return
	}
	d.lines = newLineIndex(d.tree.String())
	d.locator = suppress.New(d.tree)
	d.rev = d.tree.Revision()
}

func (d *driver) emitter(ruleID string) Emit {
	return func(offset int, message string, fixable bool) Decision {
		d.refresh()
		if d.locator.Suppressed(ruleID, offset) {
			return Skip
		}
		apply := fixable && d.fix
		line, col := d.lines.position(offset)
		d.findings = append(d.findings, Finding{
			Offset:    offset,
			Line:      line,
			Col:       col,
			RuleID:    ruleID,
			Message:   message,
			Fixable:   fixable,
			Corrected: apply,
		})
		if apply {
			return Apply
		}
		return Skip
	}
}

// run applies every rule once. It reports whether the tree was mutated.
func (d *driver) run(ctx context.Context, rules []Rule) (bool, error) {
	start := d.tree.Revision()
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		before := d.tree.Revision()
		if err := d.runRule(r); err != nil {
			return false, err
		}
		if !d.fix && d.tree.Revision() != before {
			return false, &InvariantError{RuleID: r.ID(), Err: errors.New("tree mutated in lint mode")}
		}
	}
	return d.tree.Revision() != start, nil
}

func (d *driver) runRule(r Rule) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = invariant(r.ID(), p)
		}
	}()

	emit := d.emitter(r.ID())
	r.BeforeFirstNode(d.settings.Snapshot(r.Keys()))
	err = d.visit(r, d.tree.Root(), emit)
	if err != nil && !errors.Is(err, ErrStopTraversal) {
		return wrapRuleError(r.ID(), err)
	}
	if err := r.AfterLastNode(d.tree, emit); err != nil && !errors.Is(err, ErrStopTraversal) {
		return wrapRuleError(r.ID(), err)
	}
	return nil
}

// visit walks the subtree of node. The sibling to visit next is looked up
// after each child returns, so insertions after the child are visited and
// a removed child does not end the walk.
func (d *driver) visit(r Rule, node syntax.NodeID, emit Emit) error {
	if err := r.BeforeVisit(d.tree, node, emit); err != nil {
		return err
	}
	if !d.tree.Attached(node) {
		return nil
	}

	prev := syntax.None
	child := d.tree.FirstChild(node)
	for child != syntax.None {
		if err := d.visit(r, child, emit); err != nil {
			return err
		}
		switch {
		case d.tree.Parent(child) == node:
			prev, child = child, d.tree.NextSibling(child)
		case prev != syntax.None && d.tree.Parent(prev) == node:
			child = d.tree.NextSibling(prev)
		default:
			prev, child = syntax.None, d.tree.FirstChild(node)
		}
	}
	return r.AfterVisit(d.tree, node, emit)
}

func wrapRuleError(id string, err error) error {
	var ie *InvariantError
	if errors.As(err, &ie) {
		if ie.RuleID == "" {
			ie.RuleID = id
		}
		return ie
	}
	return &InvariantError{RuleID: id, Err: err}
}

func invariant(id string, p any) error {
	switch v := p.(type) {
	case *InvariantError:
		return wrapRuleError(id, v)
	case error:
		return &InvariantError{RuleID: id, Err: fmt.Errorf("panic: %w", v)}
	default:
		return &InvariantError{RuleID: id, Err: fmt.Errorf("panic: %v", v)}
	}
}
