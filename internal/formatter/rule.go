package formatter

import (
	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// Rule inspects and rewrites a syntax tree. A fresh instance is created
// by its Factory for every formatting run, so rules may keep per-run state
// in their fields.
//
// Callbacks return ErrStopTraversal to stop walking the rest of the tree.
// Any other error aborts the run.
type Rule interface {
	// ID returns the qualified rule id, e.g. "standard:indent".
	ID() string

	// Keys lists the configuration keys the rule reads.
	Keys() []*config.Key

	// Constraints lists the rule's ordering requirements.
	Constraints() []Constraint

	// Experimental rules only run when explicitly enabled.
	Experimental() bool

	// BeforeFirstNode is called once per run with the rule's settings.
	BeforeFirstNode(cfg *config.Snapshot)

	// BeforeVisit is called on entering a node, before its children.
	BeforeVisit(tree *syntax.Tree, node syntax.NodeID, emit Emit) error

	// AfterVisit is called on leaving a node, after its children.
	AfterVisit(tree *syntax.Tree, node syntax.NodeID, emit Emit) error

	// AfterLastNode is called once after the traversal.
	AfterLastNode(tree *syntax.Tree, emit Emit) error
}

// Factory creates a fresh rule instance.
type Factory func() Rule

// Base carries a rule's descriptor and no-op callbacks. Rules embed it
// and override the callbacks they need.
type Base struct {
	RuleID         string
	Uses           []*config.Key
	Order          []Constraint
	IsExperimental bool
}

// ID implements Rule.
func (b *Base) ID() string { return b.RuleID }

// Keys implements Rule.
func (b *Base) Keys() []*config.Key { return b.Uses }

// Constraints implements Rule.
func (b *Base) Constraints() []Constraint { return b.Order }

// Experimental implements Rule.
func (b *Base) Experimental() bool { return b.IsExperimental }

// BeforeFirstNode implements Rule.
func (b *Base) BeforeFirstNode(*config.Snapshot) {}

// BeforeVisit implements Rule.
func (b *Base) BeforeVisit(*syntax.Tree, syntax.NodeID, Emit) error { return nil }

// AfterVisit implements Rule.
func (b *Base) AfterVisit(*syntax.Tree, syntax.NodeID, Emit) error { return nil }

// AfterLastNode implements Rule.
func (b *Base) AfterLastNode(*syntax.Tree, Emit) error { return nil }

// Mode is the kind of an ordering constraint.
type Mode int

const (
	// HardAfter runs the rule after the other rule, whether or not the
	// other rule is enabled.
	HardAfter Mode = iota
	// SoftAfter runs the rule after the other rule only when the other
	// rule is enabled.
	SoftAfter
	// RunLast orders the rule after every rule that does not run last.
	RunLast
)

func (m Mode) String() string {
	switch m {
	case HardAfter:
		return "hard-after"
	case SoftAfter:
		return "soft-after"
	case RunLast:
		return "run-last"
	}
	return "unknown"
}

// Constraint is one ordering requirement of a rule.
type Constraint struct {
	Mode   Mode
	RuleID string
}

// After returns a hard-after constraint on id.
func After(id string) Constraint { return Constraint{Mode: HardAfter, RuleID: id} }

// AfterIfEnabled returns a soft-after constraint on id.
func AfterIfEnabled(id string) Constraint { return Constraint{Mode: SoftAfter, RuleID: id} }

// Last is the run-last constraint.
var Last = Constraint{Mode: RunLast}
