package formatter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStopTraversal is returned by a rule callback to stop walking the rest
// of the tree for that rule. The run continues with the next rule.
var ErrStopTraversal = errors.New("stop traversal")

// ErrConfig marks configuration errors detected before any formatting.
var ErrConfig = errors.New("configuration error")

// CycleError reports rules whose ordering constraints cannot be satisfied.
type CycleError struct {
	RuleIDs []string
}

func (e *CycleError) Error() string {
	return "rule ordering cycle between " + strings.Join(e.RuleIDs, ", ")
}

// Is makes errors.Is(err, ErrConfig) hold for cycles.
func (e *CycleError) Is(target error) bool { return target == ErrConfig }

// InvariantError reports a rule that violated an engine invariant or
// failed while visiting the tree. The run is aborted.
type InvariantError struct {
	RuleID string
	Err    error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.RuleID, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }
