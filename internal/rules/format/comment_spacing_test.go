package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommentSpacing(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
		findings []string
	}{
		{"missing space after", "//note\n", "// note\n", []string{"Missing space after //"}},
		{
			"missing space before and after",
			"val a = 1//note\n",
			"val a = 1 // note\n",
			[]string{"Missing space before //", "Missing space after //"},
		},
		{"already spaced", "val a = 1 // note\n", "val a = 1 // note\n", []string{}},
		{"empty comment", "//\n", "//\n", []string{}},
		{"region directive", "//region Helpers\n", "//region Helpers\n", []string{}},
		{"noinspection directive", "//noinspection unused\n", "//noinspection unused\n", []string{}},
		{"block comment untouched", "/*note*/\n", "/*note*/\n", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := format(t, tt.in, settings(nil), NewCommentSpacing)
			assert.Equal(t, tt.expected, res.Output)
			assert.ElementsMatch(t, tt.findings, messages(res))
		})
	}
}
