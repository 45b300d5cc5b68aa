// Package suppress locates regions of a file in which findings of some or
// all rules are suppressed by directives in comments or annotations.
package suppress

import (
	"slices"
	"strings"

	"github.com/donaldgifford/kfmt/internal/syntax"
)

// DefaultRuleSet qualifies bare rule names.
const DefaultRuleSet = "standard"

const (
	disableDirective = "kfmt-disable"
	enableDirective  = "kfmt-enable"
	formatterOff     = "@formatter:off"
	formatterOn      = "@formatter:on"
	annotationPrefix = "kfmt"
)

// Qualify prefixes a bare rule name with the default rule set.
func Qualify(id string) string {
	if strings.Contains(id, ":") {
		return id
	}
	return DefaultRuleSet + ":" + id
}

// region suppresses the rules in ids (all rules when ids is nil) for
// offsets in [start, end).
type region struct {
	start, end int
	ids        []string
}

func (r region) covers(ruleID string, offset int) bool {
	if offset < r.start || offset >= r.end {
		return false
	}
	return r.ids == nil || slices.Contains(r.ids, ruleID)
}

// Locator answers whether a finding is suppressed.
type Locator struct {
	regions []region
}

// Suppressed reports whether findings of ruleID at offset are suppressed.
func (l *Locator) Suppressed(ruleID string, offset int) bool {
	for _, r := range l.regions {
		if r.covers(ruleID, offset) {
			return true
		}
	}
	return false
}

// Empty reports whether the file contains no suppression at all.
func (l *Locator) Empty() bool { return len(l.regions) == 0 }

type openBlock struct {
	start int
	ids   []string
}

// New scans the comments and annotations of tree.
func New(tree *syntax.Tree) *Locator {
	l := &Locator{}
	src := tree.String()
	var blocks []openBlock
	formatterOffAt := -1

	for _, leaf := range tree.Leaves(tree.Root()) {
		switch tree.Kind(leaf) {
		case syntax.EOLComment:
			body := strings.TrimSpace(strings.TrimPrefix(tree.Text(leaf), "//"))
			start := tree.Start(leaf)
			switch {
			case body == formatterOff:
				if formatterOffAt < 0 {
					formatterOffAt = start
				}
			case body == formatterOn:
				if formatterOffAt >= 0 {
					l.regions = append(l.regions, region{start: formatterOffAt, end: tree.End(leaf)})
					formatterOffAt = -1
				}
			default:
				if ids, ok := directive(body, disableDirective); ok {
					lineStart := strings.LastIndexByte(src[:start], '\n') + 1
					l.regions = append(l.regions, region{start: lineStart, end: tree.End(leaf), ids: ids})
				}
			}
		case syntax.BlockComment:
			body := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(tree.Text(leaf), "/*"), "*/"))
			if ids, ok := directive(body, disableDirective); ok {
				blocks = append(blocks, openBlock{start: tree.Start(leaf), ids: ids})
				continue
			}
			if ids, ok := directive(body, enableDirective); ok {
				for i := len(blocks) - 1; i >= 0; i-- {
					if slices.Equal(blocks[i].ids, ids) {
						l.regions = append(l.regions, region{start: blocks[i].start, end: tree.End(leaf), ids: ids})
						blocks = slices.Delete(blocks, i, i+1)
						break
					}
				}
			}
		}
	}

	for _, b := range blocks {
		l.regions = append(l.regions, region{start: b.start, end: len(src) + 1, ids: b.ids})
	}
	if formatterOffAt >= 0 {
		l.regions = append(l.regions, region{start: formatterOffAt, end: len(src) + 1})
	}
	l.annotations(tree, tree.Root(), len(src))
	return l
}

// directive parses "<name> [ids...]". Ids are qualified and sorted; no
// ids means all rules.
func directive(body, name string) ([]string, bool) {
	rest, ok := strings.CutPrefix(body, name)
	if !ok || rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return nil, false
	}
	return ruleIDs(strings.Fields(rest)), true
}

func ruleIDs(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, Qualify(f))
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// annotations adds a region for every @Suppress("kfmt...") annotation,
// covering the annotated declaration, or the file for @file:Suppress.
func (l *Locator) annotations(tree *syntax.Tree, id syntax.NodeID, size int) {
	for c := tree.FirstChild(id); c != syntax.None; c = tree.NextSibling(c) {
		if tree.Kind(c) == syntax.Annotation {
			l.annotation(tree, c, size)
			continue
		}
		if !tree.IsLeaf(c) {
			l.annotations(tree, c, size)
		}
	}
}

func (l *Locator) annotation(tree *syntax.Tree, ann syntax.NodeID, size int) {
	text := tree.Text(ann)
	name := strings.TrimPrefix(text, "@")
	fileLevel := false
	if rest, ok := strings.CutPrefix(name, "file:"); ok {
		name, fileLevel = rest, true
	}
	if !strings.HasPrefix(name, "Suppress(") && !strings.HasPrefix(name, "SuppressWarnings(") {
		return
	}

	all := false
	var ids []string
	for _, leaf := range tree.Leaves(ann) {
		if tree.Kind(leaf) != syntax.StringContent {
			continue
		}
		v := tree.Text(leaf)
		switch {
		case v == annotationPrefix:
			all = true
		case strings.HasPrefix(v, annotationPrefix+":"):
			ids = append(ids, strings.TrimPrefix(v, annotationPrefix+":"))
		}
	}
	if !all && len(ids) == 0 {
		return
	}
	r := region{ids: ruleIDs(ids)}
	if all {
		r.ids = nil
	}

	target := ann
	if p := tree.Parent(ann); tree.Is(p, syntax.ModifierList) {
		target = tree.Parent(p)
	} else if tree.Is(p, syntax.PrefixExpression) {
		target = p
	}
	switch {
	case fileLevel || tree.Is(target, syntax.File):
		r.start, r.end = 0, size+1
	default:
		r.start, r.end = tree.Start(target), tree.End(target)
	}
	l.regions = append(l.regions, r)
}
