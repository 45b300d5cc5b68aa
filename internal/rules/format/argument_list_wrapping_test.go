package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/kfmt/internal/config"
)

func TestArgumentListWrapping(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		style     config.CodeStyle
		overrides map[*config.Key]any
		want      string
		messages  []string
	}{
		{
			name:     "fits on one line",
			src:      "val x = foo(1, 2, 3)\n",
			style:    config.KtlintOfficial,
			want:     "val x = foo(1, 2, 3)\n",
			messages: []string{},
		},
		{
			name:      "exceeds max line length",
			src:       "val x = foo(aaa, bbb, ccc)\n",
			style:     config.KtlintOfficial,
			overrides: map[*config.Key]any{config.MaxLineLengthKey: 20},
			want:      "val x = foo(\n    aaa,\n    bbb,\n    ccc\n)\n",
			messages:  []string{msgWrapArgument, msgWrapArgument, msgWrapArgument, msgWrapClosing},
		},
		{
			name:     "partially wrapped arguments",
			src:      "val x = foo(aaa,\n    bbb)\n",
			style:    config.KtlintOfficial,
			want:     "val x = foo(\n    aaa,\n    bbb\n)\n",
			messages: []string{msgWrapArgument, msgWrapClosing},
		},
		{
			name:     "too many arguments are ignored",
			src:      "val x = foo(1, 2, 3, 4, 5, 6, 7, 8,\n    9)\n",
			style:    config.IntellijIdea,
			want:     "val x = foo(1, 2, 3, 4, 5, 6, 7, 8,\n    9)\n",
			messages: []string{},
		},
		{
			name:     "line breaks inside a lambda argument",
			src:      "val x = foo(1, bar {\n    it\n})\n",
			style:    config.KtlintOfficial,
			want:     "val x = foo(1, bar {\n    it\n})\n",
			messages: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := format(t, tt.src, styled(tt.style, tt.overrides), NewArgumentListWrapping)
			assert.Equal(t, tt.want, res.Output)
			assert.Equal(t, tt.messages, messages(res))
		})
	}
}

func TestArgumentListWrappingControlFlowIndent(t *testing.T) {
	src := "fun f() {\n    if (foo(aaa,\n        bbb)) {\n    }\n}\n"
	res := lint(t, src, settings(nil), NewArgumentListWrapping)
	assert.Equal(t, []string{msgWrapArgument, msgWrapClosing}, messages(res))
	assert.False(t, res.Changed)
}
