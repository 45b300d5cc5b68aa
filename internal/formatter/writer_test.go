package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/kfmt/internal/parser"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantSrc Source
	}{
		{
			name:    "lf",
			input:   "val a = 1\nval b = 2\n",
			want:    "val a = 1\nval b = 2\n",
			wantSrc: Source{Separator: "\n"},
		},
		{
			name:    "crlf",
			input:   "val a = 1\r\nval b = 2\r\n",
			want:    "val a = 1\nval b = 2\n",
			wantSrc: Source{Separator: "\r\n"},
		},
		{
			name:    "cr",
			input:   "val a = 1\rval b = 2\r",
			want:    "val a = 1\nval b = 2\n",
			wantSrc: Source{Separator: "\r"},
		},
		{
			name:    "first separator wins",
			input:   "val a = 1\r\nval b = 2\nval c = 3\r",
			want:    "val a = 1\nval b = 2\nval c = 3\n",
			wantSrc: Source{Separator: "\r\n"},
		},
		{
			name:    "bom",
			input:   "\uFEFFval a = 1\n",
			want:    "val a = 1\n",
			wantSrc: Source{BOM: true, Separator: "\n"},
		},
		{
			name:    "no separator",
			input:   "val a = 1",
			want:    "val a = 1",
			wantSrc: Source{Separator: "\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSrc, src)
		})
	}
}

func TestWriteRestoresEncoding(t *testing.T) {
	tests := []string{
		"fun main() {\n    println(1)\n}\n",
		"fun main() {\r\n    println(1)\r\n}\r\n",
		"\uFEFFfun main() {\r\n    println(1)\r\n}\r\n",
		"\uFEFFclass A\n",
	}

	for _, input := range tests {
		text, src, err := Normalize(input)
		require.NoError(t, err)

		tree, err := parser.Parse(text)
		require.NoError(t, err)

		out, err := Write(tree, src)
		require.NoError(t, err)
		assert.Equal(t, input, out)
	}
}

func TestLineIndexPosition(t *testing.T) {
	idx := newLineIndex("ab\nçd\n\nx")

	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{5, 2, 2}, // ç is two bytes
		{7, 3, 1},
		{8, 4, 1},
		{100, 4, 2},
	}
	for _, tt := range tests {
		line, col := idx.position(tt.offset)
		assert.Equal(t, tt.line, line, "line of offset %d", tt.offset)
		assert.Equal(t, tt.col, col, "column of offset %d", tt.offset)
	}
}
