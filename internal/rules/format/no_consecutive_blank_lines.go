package format

import (
	"strings"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// NoConsecutiveBlankLines collapses runs of blank lines to at most
// max_consecutive_blank_lines, and removes blank lines at the end of the
// file.
type NoConsecutiveBlankLines struct {
	formatter.Base
	maxBlank int
}

// NewNoConsecutiveBlankLines returns the no-consecutive-blank-lines rule.
func NewNoConsecutiveBlankLines() formatter.Rule {
	return &NoConsecutiveBlankLines{Base: formatter.Base{
		RuleID: NoConsecutiveBlankLinesID,
		Uses:   []*config.Key{config.MaxConsecutiveBlankLinesKey},
	}}
}

// BeforeFirstNode implements formatter.Rule.
func (r *NoConsecutiveBlankLines) BeforeFirstNode(cfg *config.Snapshot) {
	r.maxBlank = max(0, cfg.Int(config.MaxConsecutiveBlankLinesKey))
}

// BeforeVisit implements formatter.Rule.
func (r *NoConsecutiveBlankLines) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	if !tr.IsWhitespace(n) || tr.PrevLeaf(n) == syntax.None {
		return nil
	}
	text := tr.Text(n)
	count := strings.Count(text, "\n")
	if count < 2 {
		return nil
	}

	allowed := r.maxBlank + 1
	if tr.NextLeaf(n) == syntax.None {
		allowed = 1
	}
	if count <= allowed {
		return nil
	}

	lines := strings.Split(text, "\n")
	offset := tr.Start(n)
	for _, l := range lines[:min(max(allowed, 2), count)] {
		offset += len(l) + 1
	}
	if emit(offset, "Needless blank line(s)", true) == formatter.Apply {
		tr.SetText(n, lines[0]+strings.Repeat("\n", allowed)+lines[len(lines)-1])
	}
	return nil
}
