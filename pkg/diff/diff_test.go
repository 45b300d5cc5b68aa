package diff

import (
	"strings"
	"testing"
)

func mustUnified(t *testing.T, name, old, updated string) string {
	t.Helper()
	out, err := Unified(name, old, updated)
	if err != nil {
		t.Fatalf("Unified: %v", err)
	}
	return out
}

func TestUnifiedIdentical(t *testing.T) {
	if result := mustUnified(t, "Main.kt", "hello\n", "hello\n"); result != "" {
		t.Errorf("expected empty diff for identical inputs, got:\n%s", result)
	}
}

func TestUnifiedExact(t *testing.T) {
	tests := []struct {
		name         string
		old, updated string
		want         string
	}{
		{
			name:    "modification",
			old:     "a\nb\nc\n",
			updated: "a\nB\nc\n",
			want:    "--- a/Main.kt\n+++ b/Main.kt\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n",
		},
		{
			name:    "old empty",
			old:     "",
			updated: "hello\n",
			want:    "--- a/Main.kt\n+++ b/Main.kt\n@@ -0,0 +1,1 @@\n+hello\n",
		},
		{
			name:    "new empty",
			old:     "hello\n",
			updated: "",
			want:    "--- a/Main.kt\n+++ b/Main.kt\n@@ -1,1 +0,0 @@\n-hello\n",
		},
		{
			name:    "missing final newline",
			old:     "val x = 1",
			updated: "val x = 1\n",
			want:    "--- a/Main.kt\n+++ b/Main.kt\n@@ -1,1 +1,1 @@\n-val x = 1\n\\ No newline at end of file\n+val x = 1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustUnified(t, "Main.kt", tt.old, tt.updated); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestUnifiedDeletion(t *testing.T) {
	result := mustUnified(t, "Main.kt", "line1\nline2\nline3\n", "line1\nline3\n")
	if !strings.Contains(result, "-line2\n") {
		t.Errorf("missing deletion line, got:\n%s", result)
	}
}

func TestUnifiedSeparateHunks(t *testing.T) {
	lines := make([]string, 0, 40)
	for i := range 40 {
		lines = append(lines, "line"+string(rune('A'+i))+"\n")
	}
	old := strings.Join(lines, "")

	changed := make([]string, len(lines))
	copy(changed, lines)
	changed[5] = "CHANGED\n"
	changed[30] = "CHANGED\n"

	result := mustUnified(t, "Main.kt", old, strings.Join(changed, ""))

	if got := strings.Count(result, "@@ -"); got != 2 {
		t.Fatalf("expected 2 hunks, got %d:\n%s", got, result)
	}
	if !strings.Contains(result, "@@ -3,7 +3,7 @@\n") {
		t.Errorf("unexpected first hunk header:\n%s", result)
	}
	if !strings.Contains(result, " line"+string(rune('A'+2))) || !strings.Contains(result, " line"+string(rune('A'+8))) {
		t.Errorf("expected three context lines around the first change, got:\n%s", result)
	}
}

func TestUnifiedLargeFile(t *testing.T) {
	oldLines := make([]string, 0, 1000)
	newLines := make([]string, 0, 1000)
	for i := range 1000 {
		oldLines = append(oldLines, "line "+string(rune('A'+i%26))+"\n")
		newLines = append(newLines, "line "+string(rune('A'+i%26))+"\n")
	}
	newLines[500] = "changed line 500\n"
	newLines[999] = "changed line 999\n"

	result := mustUnified(t, "Large.kt", strings.Join(oldLines, ""), strings.Join(newLines, ""))

	if !strings.Contains(result, "+changed line 500\n") {
		t.Error("missing change at line 500")
	}
	if !strings.Contains(result, "+changed line 999\n") {
		t.Error("missing change at line 999")
	}
}

func TestStats(t *testing.T) {
	a := mustUnified(t, "A.kt", "a\nb\nc\n", "a\nB\nc\n")
	b := mustUnified(t, "B.kt", "x\n", "x\ny\n")

	st, err := Stats(a + b)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Files != 2 || st.Added != 2 || st.Deleted != 1 {
		t.Errorf("got %+v", st)
	}
	if got, want := st.String(), "2 files changed, 2 insertions(+), 1 deletions(-)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStatsEmpty(t *testing.T) {
	st, err := Stats("")
	if err != nil || st != (Stat{}) {
		t.Errorf("Stats(\"\") = %+v, %v", st, err)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"one line with newline", "hello\n", 1},
		{"one line no newline", "hello", 1},
		{"two lines", "a\nb\n", 2},
		{"trailing blank", "a\n\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := splitLines(tt.input)
			if len(lines) != tt.want {
				t.Errorf("splitLines(%q) = %d lines, want %d: %q", tt.input, len(lines), tt.want, lines)
			}
		})
	}
}
