// Package syntax provides the mutable concrete syntax tree that rules
// inspect and rewrite.
package syntax

// Kind classifies a node in the tree. Leaf kinds carry text; composite
// kinds only group children.
type Kind uint8

// Leaf kinds.
const (
	// Whitespace is a maximal run of spaces, tabs and newlines.
	Whitespace Kind = iota
	// EOLComment is a // comment up to (not including) the line break.
	EOLComment
	// BlockComment is a /* */ comment.
	BlockComment
	// KDoc is a /** */ documentation comment.
	KDoc
	// Identifier is a name, soft keyword or backticked name.
	Identifier
	// Keyword is a hard keyword (fun, class, if, val, ...).
	Keyword
	// Number is a numeric literal.
	Number
	// CharLiteral is a 'c' literal.
	CharLiteral
	// OpenQuote is the opening " or """ of a string.
	OpenQuote
	// StringContent is literal text of a string, including templates.
	// Raw strings are split after each line break.
	StringContent
	// ClosingQuote is the closing " or """ of a string.
	ClosingQuote
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	LAngle
	RAngle
	Comma
	Dot
	// SafeAccess is ?.
	SafeAccess
	Colon
	DoubleColon
	Semicolon
	// Eq is the plain assignment =.
	Eq
	// Arrow is ->.
	Arrow
	At
	// Operator is any other operator token.
	Operator

	lastLeaf
)

// Composite kinds.
const (
	File Kind = iota + lastLeaf
	PackageDirective
	ImportList
	ImportDirective
	ModifierList
	Annotation
	Class
	ObjectLiteral
	PrimaryConstructor
	SuperTypeList
	SuperTypeEntry
	ClassBody
	ClassInitializer
	SecondaryConstructor
	Fun
	TypeParameterList
	TypeParameter
	TypeArgumentList
	TypeReference
	ValueParameterList
	ValueParameter
	Property
	PropertyAccessor
	TypeAlias
	Block
	CallExpression
	ValueArgumentList
	ValueArgument
	LambdaArgument
	FunctionLiteral
	DotQualifiedExpression
	SafeAccessExpression
	CallableReference
	BinaryExpression
	BinaryWithType
	PrefixExpression
	PostfixExpression
	ParenthesizedExpression
	ArrayAccess
	CollectionLiteral
	StringTemplate
	If
	Condition
	Then
	Else
	When
	WhenEntry
	WhenCondition
	Try
	Catch
	Finally
	For
	While
	DoWhile
	Body
	Jump

	kindCount
)

var kindNames = [kindCount]string{
	Whitespace:              "WHITE_SPACE",
	EOLComment:              "EOL_COMMENT",
	BlockComment:            "BLOCK_COMMENT",
	KDoc:                    "KDOC",
	Identifier:              "IDENTIFIER",
	Keyword:                 "KEYWORD",
	Number:                  "NUMBER",
	CharLiteral:             "CHAR",
	OpenQuote:               "OPEN_QUOTE",
	StringContent:           "STRING_CONTENT",
	ClosingQuote:            "CLOSING_QUOTE",
	LParen:                  "LPAR",
	RParen:                  "RPAR",
	LBrace:                  "LBRACE",
	RBrace:                  "RBRACE",
	LBracket:                "LBRACKET",
	RBracket:                "RBRACKET",
	LAngle:                  "LT",
	RAngle:                  "GT",
	Comma:                   "COMMA",
	Dot:                     "DOT",
	SafeAccess:              "SAFE_ACCESS",
	Colon:                   "COLON",
	DoubleColon:             "COLONCOLON",
	Semicolon:               "SEMICOLON",
	Eq:                      "EQ",
	Arrow:                   "ARROW",
	At:                      "AT",
	Operator:                "OPERATOR",
	File:                    "FILE",
	PackageDirective:        "PACKAGE_DIRECTIVE",
	ImportList:              "IMPORT_LIST",
	ImportDirective:         "IMPORT_DIRECTIVE",
	ModifierList:            "MODIFIER_LIST",
	Annotation:              "ANNOTATION_ENTRY",
	Class:                   "CLASS",
	ObjectLiteral:           "OBJECT_LITERAL",
	PrimaryConstructor:      "PRIMARY_CONSTRUCTOR",
	SuperTypeList:           "SUPER_TYPE_LIST",
	SuperTypeEntry:          "SUPER_TYPE_ENTRY",
	ClassBody:               "CLASS_BODY",
	ClassInitializer:        "CLASS_INITIALIZER",
	SecondaryConstructor:    "SECONDARY_CONSTRUCTOR",
	Fun:                     "FUN",
	TypeParameterList:       "TYPE_PARAMETER_LIST",
	TypeParameter:           "TYPE_PARAMETER",
	TypeArgumentList:        "TYPE_ARGUMENT_LIST",
	TypeReference:           "TYPE_REFERENCE",
	ValueParameterList:      "VALUE_PARAMETER_LIST",
	ValueParameter:          "VALUE_PARAMETER",
	Property:                "PROPERTY",
	PropertyAccessor:        "PROPERTY_ACCESSOR",
	TypeAlias:               "TYPEALIAS",
	Block:                   "BLOCK",
	CallExpression:          "CALL_EXPRESSION",
	ValueArgumentList:       "VALUE_ARGUMENT_LIST",
	ValueArgument:           "VALUE_ARGUMENT",
	LambdaArgument:          "LAMBDA_ARGUMENT",
	FunctionLiteral:         "FUNCTION_LITERAL",
	DotQualifiedExpression:  "DOT_QUALIFIED_EXPRESSION",
	SafeAccessExpression:    "SAFE_ACCESS_EXPRESSION",
	CallableReference:       "CALLABLE_REFERENCE_EXPRESSION",
	BinaryExpression:        "BINARY_EXPRESSION",
	BinaryWithType:          "BINARY_WITH_TYPE",
	PrefixExpression:        "PREFIX_EXPRESSION",
	PostfixExpression:       "POSTFIX_EXPRESSION",
	ParenthesizedExpression: "PARENTHESIZED",
	ArrayAccess:             "ARRAY_ACCESS_EXPRESSION",
	CollectionLiteral:       "COLLECTION_LITERAL_EXPRESSION",
	StringTemplate:          "STRING_TEMPLATE",
	If:                      "IF",
	Condition:               "CONDITION",
	Then:                    "THEN",
	Else:                    "ELSE",
	When:                    "WHEN",
	WhenEntry:               "WHEN_ENTRY",
	WhenCondition:           "WHEN_CONDITION",
	Try:                     "TRY",
	Catch:                   "CATCH",
	Finally:                 "FINALLY",
	For:                     "FOR",
	While:                   "WHILE",
	DoWhile:                 "DO_WHILE",
	Body:                    "BODY",
	Jump:                    "JUMP",
}

// String returns the upper-case element name of the kind.
func (k Kind) String() string {
	if k < kindCount && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsLeaf reports whether nodes of this kind carry text.
func (k Kind) IsLeaf() bool { return k < lastLeaf }

// IsComment reports whether k is one of the comment kinds.
func (k Kind) IsComment() bool {
	return k == EOLComment || k == BlockComment || k == KDoc
}

// IsTrivia reports whether k is whitespace or a comment.
func (k Kind) IsTrivia() bool { return k == Whitespace || k.IsComment() }

// Count is the number of defined kinds; dispatch tables are sized by it.
const Count = int(kindCount)
