package formatter

import (
	"sort"
	"unicode/utf8"
)

// lineIndex maps byte offsets of a text to 1-based line and rune column.
type lineIndex struct {
	src    string
	starts []int
}

func newLineIndex(src string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, starts: starts}
}

// position returns the 1-based line and column of offset. Offsets past
// the end map to the end of the text.
func (l *lineIndex) position(offset int) (line, col int) {
	offset = max(0, min(offset, len(l.src)))
	i := sort.SearchInts(l.starts, offset+1) - 1
	return i + 1, utf8.RuneCountInString(l.src[l.starts[i]:offset]) + 1
}
