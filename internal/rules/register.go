package rules

import (
	"github.com/donaldgifford/kfmt/internal/rules/format"
)

func init() {
	// Line and whitespace hygiene.
	Register(format.NewNoTrailingSpaces)
	Register(format.NewFinalNewline)
	Register(format.NewNoConsecutiveBlankLines)
	Register(format.NewCommentSpacing)
	Register(format.NewOpSpacing)
	Register(format.NewNoEmptyFirstLineInMethodBlock)

	// Wrapping.
	Register(format.NewFunctionSignature)
	Register(format.NewClassSignature)
	Register(format.NewArgumentListWrapping)
	Register(format.NewTrailingCommaOnCallSite)
	Register(format.NewTrailingCommaOnDeclarationSite)

	// Indentation and line length run after everything that moves code.
	Register(format.NewIndentation)
	Register(format.NewMaxLineLength)
}
