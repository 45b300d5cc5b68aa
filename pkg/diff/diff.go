// Package diff renders unified diffs of formatting changes and summarizes
// them.
package diff

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
	godiff "github.com/sourcegraph/go-diff/diff"
)

// contextLines is the number of unchanged lines shown around each hunk.
const contextLines = 3

const noNewline = "\\ No newline at end of file\n"

// Unified returns a unified diff between oldText and newText, or an empty
// string if they are identical.
func Unified(filename, oldText, newText string) (string, error) {
	if oldText == newText {
		return "", nil
	}

	ops := script(splitLines(oldText), splitLines(newText))
	fd := &godiff.FileDiff{
		OrigName: "a/" + filename,
		NewName:  "b/" + filename,
	}
	for _, group := range group(ops) {
		h, err := toHunk(group)
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", filename, err)
		}
		fd.Hunks = append(fd.Hunks, h)
	}
	if len(fd.Hunks) == 0 {
		return "", nil
	}

	out, err := godiff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", filename, err)
	}
	return string(out), nil
}

// Stat summarizes one or more unified diffs.
type Stat struct {
	Files   int
	Added   int
	Deleted int
}

// String renders the summary the way git does.
func (s Stat) String() string {
	files := "files"
	if s.Files == 1 {
		files = "file"
	}
	return fmt.Sprintf("%d %s changed, %d insertions(+), %d deletions(-)", s.Files, files, s.Added, s.Deleted)
}

// Stats parses the concatenated unified diffs in patch and counts the
// files and lines they touch.
func Stats(patch string) (Stat, error) {
	if patch == "" {
		return Stat{}, nil
	}
	fds, err := godiff.ParseMultiFileDiff([]byte(patch))
	if err != nil {
		return Stat{}, fmt.Errorf("parsing diff: %w", err)
	}
	st := Stat{Files: len(fds)}
	for _, fd := range fds {
		s := fd.Stat()
		st.Added += int(s.Added + s.Changed)
		st.Deleted += int(s.Deleted + s.Changed)
	}
	return st, nil
}

// splitLines splits text into lines, each keeping its line break. An
// empty string produces zero lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type opKind byte

const (
	opEqual  opKind = ' '
	opDelete opKind = '-'
	opInsert opKind = '+'
)

// op is one line of an edit script. a and b are the indexes of the line
// in the old and new text; the side an insert or delete does not touch
// holds the index of the next line on that side.
type op struct {
	kind opKind
	line string
	a, b int
}

// script computes the shortest edit script from a to b (Myers, O(ND)).
func script(a, b []string) []op {
	n, m := len(a), len(b)
	off := n + m
	v := make([]int, 2*off+2)
	var trace [][]int
	for d := 0; d <= off; d++ {
		trace = append(trace, slices.Clone(v))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || k != d && v[off+k-1] < v[off+k+1] {
				x = v[off+k+1]
			} else {
				x = v[off+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[off+k] = x
			if x >= n && y >= m {
				return backtrack(trace, a, b, off)
			}
		}
	}
	return nil
}

func backtrack(trace [][]int, a, b []string, off int) []op {
	x, y := len(a), len(b)
	var ops []op
	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d]
		k := x - y
		prevK := k - 1
		if k == -d || k != d && v[off+k-1] < v[off+k+1] {
			prevK = k + 1
		}
		prevX := v[off+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			ops = append(ops, op{kind: opEqual, line: a[x], a: x, b: y})
		}
		if d == 0 {
			break
		}
		if x == prevX {
			y--
			ops = append(ops, op{kind: opInsert, line: b[y], a: x, b: y})
		} else {
			x--
			ops = append(ops, op{kind: opDelete, line: a[x], a: x, b: y})
		}
	}
	slices.Reverse(ops)
	return ops
}

// group splits an edit script into hunks: runs of changes with up to
// contextLines unchanged lines around them. Runs separated by at most
// twice that many unchanged lines share a hunk.
func group(ops []op) [][]op {
	var out [][]op
	i := 0
	for {
		for i < len(ops) && ops[i].kind == opEqual {
			i++
		}
		if i == len(ops) {
			return out
		}
		start := max(i-contextLines, 0)
		end := i
		for {
			for end < len(ops) && ops[end].kind != opEqual {
				end++
			}
			next := end
			for next < len(ops) && ops[next].kind == opEqual {
				next++
			}
			if next == len(ops) || next-end > 2*contextLines {
				break
			}
			end = next
		}
		stop := min(end+contextLines, len(ops))
		out = append(out, ops[start:stop])
		i = stop
	}
}

func toHunk(ops []op) (*godiff.Hunk, error) {
	var body strings.Builder
	origLines, newLines := 0, 0
	for _, o := range ops {
		body.WriteByte(byte(o.kind))
		body.WriteString(o.line)
		if !strings.HasSuffix(o.line, "\n") {
			body.WriteString("\n")
			body.WriteString(noNewline)
		}
		switch o.kind {
		case opEqual:
			origLines++
			newLines++
		case opDelete:
			origLines++
		case opInsert:
			newLines++
		}
	}

	// An empty side starts at the line before the hunk.
	origStart, newStart := ops[0].a+1, ops[0].b+1
	if origLines == 0 {
		origStart--
	}
	if newLines == 0 {
		newStart--
	}

	h := &godiff.Hunk{Body: []byte(body.String())}
	var err error
	if h.OrigStartLine, err = safecast.Conv[int32](origStart); err != nil {
		return nil, err
	}
	if h.OrigLines, err = safecast.Conv[int32](origLines); err != nil {
		return nil, err
	}
	if h.NewStartLine, err = safecast.Conv[int32](newStart); err != nil {
		return nil, err
	}
	if h.NewLines, err = safecast.Conv[int32](newLines); err != nil {
		return nil, err
	}
	return h, nil
}
