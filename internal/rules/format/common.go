// Package format contains the standard formatting rules.
package format

import (
	"strings"
	"unicode/utf8"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// Rule ids of the standard rule set.
const (
	NoTrailingSpacesID               = "standard:no-trailing-spaces"
	FinalNewlineID                   = "standard:final-newline"
	NoConsecutiveBlankLinesID        = "standard:no-consecutive-blank-lines"
	CommentSpacingID                 = "standard:comment-spacing"
	OpSpacingID                      = "standard:op-spacing"
	NoEmptyFirstLineInMethodBlockID  = "standard:no-empty-first-line-in-method-block"
	FunctionSignatureID              = "standard:function-signature"
	ClassSignatureID                 = "standard:class-signature"
	ArgumentListWrappingID           = "standard:argument-list-wrapping"
	TrailingCommaOnCallSiteID        = "standard:trailing-comma-on-call-site"
	TrailingCommaOnDeclarationSiteID = "standard:trailing-comma-on-declaration-site"
	IndentID                         = "standard:indent"
	MaxLineLengthID                  = "standard:max-line-length"

	// WrappingID names a rule outside this rule set that several rules
	// order themselves after when it is loaded.
	WrappingID = "standard:wrapping"
)

// indentKeys are the keys every indent-aware rule declares.
var indentKeys = []*config.Key{config.IndentSizeKey, config.IndentStyleKey}

func keys(extra ...*config.Key) []*config.Key {
	out := make([]*config.Key, 0, len(indentKeys)+len(extra))
	out = append(out, indentKeys...)
	return append(out, extra...)
}

// indentConfig converts between indentation text and levels.
type indentConfig struct {
	unit string
	size int
	tab  bool
}

func newIndentConfig(cfg *config.Snapshot) indentConfig {
	size := cfg.Int(config.IndentSizeKey)
	if size <= 0 {
		size = 4
	}
	return indentConfig{
		unit: cfg.IndentUnit(),
		size: size,
		tab:  cfg.String(config.IndentStyleKey) == "tab",
	}
}

// repeat returns n levels of indentation.
func (ic indentConfig) repeat(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(ic.unit, n)
}

// levelFrom returns the indentation level of the text after the last line
// break of text. Tabs count as one level each.
func (ic indentConfig) levelFrom(text string) int {
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	width := 0
	for _, r := range text {
		switch r {
		case '\t':
			width += ic.size
		case ' ':
			width++
		}
	}
	return width / ic.size
}

// normalize rewrites the indentation text in the configured style,
// counting a tab as one indent unit.
func (ic indentConfig) normalize(text string) string {
	width := 0
	for _, r := range text {
		if r == '\t' {
			width += ic.size
		} else {
			width++
		}
	}
	if !ic.tab {
		return strings.Repeat(" ", width)
	}
	return strings.Repeat("\t", width/ic.size) + strings.Repeat(" ", width%ic.size)
}

// indentOf returns a line break followed by the indentation of the line
// on which id starts.
func (ic indentConfig) indentOf(tr *syntax.Tree, id syntax.NodeID) string {
	return "\n" + tr.Indent(id)
}

// childIndentOf is indentOf plus one level.
func (ic indentConfig) childIndentOf(tr *syntax.Tree, id syntax.NodeID) string {
	return "\n" + tr.Indent(id) + ic.unit
}

// runeLen is the length of s in runes.
func runeLen(s string) int { return utf8.RuneCountInString(s) }

// firstCodeLeaf returns the first leaf of id that is neither whitespace
// nor a comment.
func firstCodeLeaf(tr *syntax.Tree, id syntax.NodeID) syntax.NodeID {
	for _, l := range tr.Leaves(id) {
		if tr.IsCode(l) {
			return l
		}
	}
	return syntax.None
}

// textBetween concatenates the leaves from first through last inclusive.
func textBetween(tr *syntax.Tree, first, last syntax.NodeID) string {
	var b strings.Builder
	for l := first; l != syntax.None; l = tr.NextLeaf(l) {
		b.WriteString(tr.Text(l))
		if l == last {
			break
		}
	}
	return b.String()
}

// hasModifier reports whether the modifier list of decl contains the
// given keyword.
func hasModifier(tr *syntax.Tree, decl syntax.NodeID, name string) bool {
	mods := tr.FindChild(decl, syntax.ModifierList)
	if mods == syntax.None {
		return false
	}
	for c := tr.FirstChild(mods); c != syntax.None; c = tr.NextSibling(c) {
		if tr.LeafText(c, name) {
			return true
		}
	}
	return false
}

// declarationKeyword returns the first keyword child of decl, such as
// "class", "interface" or "object".
func declarationKeyword(tr *syntax.Tree, decl syntax.NodeID) syntax.NodeID {
	return tr.FindChild(decl, syntax.Keyword)
}
