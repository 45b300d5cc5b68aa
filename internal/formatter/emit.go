package formatter

// Decision tells a rule whether it may apply the fix for a finding it just
// emitted.
type Decision int

const (
	// Skip leaves the tree untouched.
	Skip Decision = iota
	// Apply lets the rule mutate the tree to correct the finding.
	Apply
)

func (d Decision) String() string {
	if d == Apply {
		return "apply"
	}
	return "skip"
}

// Emit reports a finding at a byte offset of the current tree text. The
// returned decision is Apply only for fixable, unsuppressed findings in
// format mode; rules gate every mutation behind it.
type Emit func(offset int, message string, fixable bool) Decision

// Finding is one reported problem. Line and Col are 1-based; Col counts
// runes.
type Finding struct {
	Offset    int    `json:"-"`
	Line      int    `json:"line"`
	Col       int    `json:"column"`
	RuleID    string `json:"rule"`
	Message   string `json:"message"`
	Fixable   bool   `json:"fixable"`
	Corrected bool   `json:"corrected"`
}
