package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/kfmt/internal/config"
)

func TestNoConsecutiveBlankLines(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxBlank int
		expected string
		findings int
	}{
		{"two blank lines", "val a = 1\n\n\nval b = 2\n", 1, "val a = 1\n\nval b = 2\n", 1},
		{"three blank lines", "val a = 1\n\n\n\nval b = 2\n", 1, "val a = 1\n\nval b = 2\n", 1},
		{"one blank line", "val a = 1\n\nval b = 2\n", 1, "val a = 1\n\nval b = 2\n", 0},
		{"configured two", "val a = 1\n\n\n\nval b = 2\n", 2, "val a = 1\n\n\nval b = 2\n", 1},
		{"configured zero", "val a = 1\n\nval b = 2\n", 0, "val a = 1\nval b = 2\n", 1},
		{"indent kept", "fun f() {\n    a()\n\n\n    b()\n}\n", 1, "fun f() {\n    a()\n\n    b()\n}\n", 1},
		{"end of file", "val a = 1\n\n\n", 1, "val a = 1\n", 1},
		{"start of file", "\n\n\nval a = 1\n", 1, "\n\n\nval a = 1\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings(map[*config.Key]any{config.MaxConsecutiveBlankLinesKey: tt.maxBlank})
			res := format(t, tt.in, s, NewNoConsecutiveBlankLines)
			assert.Equal(t, tt.expected, res.Output)
			assert.Len(t, res.Findings, tt.findings)
		})
	}
}

func TestNoConsecutiveBlankLinesMessage(t *testing.T) {
	res := lint(t, "val a = 1\n\n\nval b = 2\n", settings(nil), NewNoConsecutiveBlankLines)
	assert.Equal(t, []string{"Needless blank line(s)"}, messages(res))
	if assert.Len(t, res.Findings, 1) {
		assert.Equal(t, 3, res.Findings[0].Line)
	}
}
