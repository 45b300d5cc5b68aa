package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalNewline(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
		findings []string
	}{
		{"missing", "val a = 1", "val a = 1\n", []string{`File must end with a newline (\n)`}},
		{"present", "val a = 1\n", "val a = 1\n", []string{}},
		{"trailing whitespace", "val a = 1  ", "val a = 1  \n", []string{`File must end with a newline (\n)`}},
		{"comment last", "// done", "// done\n", []string{`File must end with a newline (\n)`}},
		{"empty file", "", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := format(t, tt.in, settings(nil), NewFinalNewline)
			assert.Equal(t, tt.expected, res.Output)
			assert.Equal(t, tt.findings, messages(res))
		})
	}
}

func TestFinalNewlineLintReportsEndOfFile(t *testing.T) {
	res := lint(t, "val a = 1\nval b = 2", settings(nil), NewFinalNewline)
	if assert.Len(t, res.Findings, 1) {
		assert.Equal(t, 2, res.Findings[0].Line)
		assert.Equal(t, 10, res.Findings[0].Col)
	}
	assert.False(t, res.Changed)
}
