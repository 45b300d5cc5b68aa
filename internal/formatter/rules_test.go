package formatter

import (
	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// stubRule is a configurable rule for engine tests.
type stubRule struct {
	Base
	before func(*syntax.Tree, syntax.NodeID, Emit) error
	after  func(*syntax.Tree, syntax.NodeID, Emit) error
	last   func(*syntax.Tree, Emit) error
	first  func(*config.Snapshot)
}

func (r *stubRule) BeforeFirstNode(cfg *config.Snapshot) {
	if r.first != nil {
		r.first(cfg)
	}
}

func (r *stubRule) BeforeVisit(tree *syntax.Tree, node syntax.NodeID, emit Emit) error {
	if r.before != nil {
		return r.before(tree, node, emit)
	}
	return nil
}

func (r *stubRule) AfterVisit(tree *syntax.Tree, node syntax.NodeID, emit Emit) error {
	if r.after != nil {
		return r.after(tree, node, emit)
	}
	return nil
}

func (r *stubRule) AfterLastNode(tree *syntax.Tree, emit Emit) error {
	if r.last != nil {
		return r.last(tree, emit)
	}
	return nil
}

func stub(id string, constraints ...Constraint) *stubRule {
	return &stubRule{Base: Base{RuleID: id, Order: constraints}}
}

func factories(rules ...*stubRule) []Factory {
	out := make([]Factory, len(rules))
	for i, r := range rules {
		out[i] = func() Rule { return r }
	}
	return out
}

func ids(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.ID()
	}
	return out
}
