// Package formatter provides the formatting engine: rule scheduling, the
// per-rule tree walk, the emit protocol and text normalization.
package formatter

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/donaldgifford/kfmt/internal/syntax"
)

// Source describes how input text was encoded so the output can be
// written back the same way.
type Source struct {
	BOM       bool
	Separator string
}

// Normalize strips a UTF-8 byte order mark and converts CRLF and CR line
// separators to LF. The first separator in the input is remembered.
func Normalize(raw string) (string, Source, error) {
	var src Source
	text := raw
	if strings.HasPrefix(raw, "\uFEFF") {
		decoded, err := unicode.UTF8BOM.NewDecoder().String(raw)
		if err != nil {
			return "", src, fmt.Errorf("decoding UTF-8 byte order mark: %w", err)
		}
		src.BOM = true
		text = decoded
	}

	src.Separator = "\n"
	if i := strings.IndexAny(text, "\r\n"); i >= 0 && text[i] == '\r' {
		src.Separator = "\r"
		if i+1 < len(text) && text[i+1] == '\n' {
			src.Separator = "\r\n"
		}
	}
	if strings.IndexByte(text, '\r') >= 0 {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	return text, src, nil
}

// Write serializes a tree back into source text using the separator and
// byte order mark of the original input.
func Write(tree *syntax.Tree, src Source) (string, error) {
	return src.Restore(tree.String())
}

// Restore re-applies the line separator and byte order mark to LF text.
func (s Source) Restore(text string) (string, error) {
	if s.Separator != "" && s.Separator != "\n" {
		text = strings.ReplaceAll(text, "\n", s.Separator)
	}
	if !s.BOM {
		return text, nil
	}
	out, err := unicode.UTF8BOM.NewEncoder().String(text)
	if err != nil {
		return "", fmt.Errorf("encoding UTF-8 byte order mark: %w", err)
	}
	return out, nil
}
