// Package config defines the configuration types, keys and defaults for
// kfmt.
package config

// CodeStyle selects a family of defaults.
type CodeStyle string

// Supported code styles.
const (
	KtlintOfficial CodeStyle = "ktlint_official"
	IntellijIdea   CodeStyle = "intellij_idea"
	AndroidStudio  CodeStyle = "android_studio"
)

// Config is the top-level configuration as read from a config file and the
// environment. Pointer fields distinguish "not configured" from an explicit
// zero so code-style defaults can apply.
type Config struct {
	CodeStyle   CodeStyle `yaml:"code_style" toml:"code_style" env:"CODE_STYLE" validate:"omitempty,oneof=ktlint_official intellij_idea android_studio"`
	IndentSize  *int      `yaml:"indent_size" toml:"indent_size" env:"INDENT_SIZE" validate:"omitempty,min=1,max=16"`
	IndentStyle string    `yaml:"indent_style" toml:"indent_style" env:"INDENT_STYLE" validate:"omitempty,oneof=space tab"`

	// MaxLineLength 0 disables line length checks.
	MaxLineLength *int `yaml:"max_line_length" toml:"max_line_length" env:"MAX_LINE_LENGTH" validate:"omitempty,min=0"`
	MaxFormatRuns *int `yaml:"max_format_runs" toml:"max_format_runs" env:"MAX_FORMAT_RUNS" validate:"omitempty,min=1,max=10"`

	IgnoreBackTickedIdentifier *bool `yaml:"ignore_back_ticked_identifier" toml:"ignore_back_ticked_identifier" env:"IGNORE_BACK_TICKED_IDENTIFIER"`

	AllowTrailingComma           *bool `yaml:"allow_trailing_comma" toml:"allow_trailing_comma" env:"ALLOW_TRAILING_COMMA"`
	AllowTrailingCommaOnCallSite *bool `yaml:"allow_trailing_comma_on_call_site" toml:"allow_trailing_comma_on_call_site" env:"ALLOW_TRAILING_COMMA_ON_CALL_SITE"`
	MaxConsecutiveBlankLines     *int  `yaml:"max_consecutive_blank_lines" toml:"max_consecutive_blank_lines" env:"MAX_CONSECUTIVE_BLANK_LINES" validate:"omitempty,min=0,max=10"`

	FunctionSignatureForceMultiline *int `yaml:"function_signature_force_multiline_when_parameter_count_greater_or_equal_than" toml:"function_signature_force_multiline_when_parameter_count_greater_or_equal_than" validate:"omitempty,min=0"`
	ClassSignatureForceMultiline    *int `yaml:"class_signature_force_multiline_when_parameter_count_greater_or_equal_than" toml:"class_signature_force_multiline_when_parameter_count_greater_or_equal_than" validate:"omitempty,min=0"`
	ArgumentListWrappingIgnore      *int `yaml:"argument_list_wrapping_ignore_when_parameter_count_greater_or_equal_than" toml:"argument_list_wrapping_ignore_when_parameter_count_greater_or_equal_than" validate:"omitempty,min=0"`

	// FrontEndCheck validates input with the tree-sitter Kotlin grammar
	// before formatting.
	FrontEndCheck bool `yaml:"front_end_check" toml:"front_end_check" env:"FRONT_END_CHECK"`

	Rules RulesConfig `yaml:"rules" toml:"rules"`
}

// RulesConfig selects which rules run.
type RulesConfig struct {
	Disabled []string `yaml:"disabled" toml:"disabled" env:"DISABLED_RULES" envSeparator:"," validate:"dive,ruleid"`
	// Enabled turns on individual experimental rules.
	Enabled      []string `yaml:"enabled" toml:"enabled" env:"ENABLED_RULES" envSeparator:"," validate:"dive,ruleid"`
	Experimental bool     `yaml:"experimental" toml:"experimental" env:"EXPERIMENTAL"`
}

// DefaultConfig returns a Config with no explicit settings: every key
// resolves to the default of the ktlint_official code style.
func DefaultConfig() *Config {
	return &Config{CodeStyle: KtlintOfficial}
}

// Style returns the configured code style, defaulting to ktlint_official.
func (c *Config) Style() CodeStyle {
	if c.CodeStyle == "" {
		return KtlintOfficial
	}
	return c.CodeStyle
}

// Settings resolves the configuration into the key/value view handed to
// rules.
func (c *Config) Settings() *Settings {
	s := &Settings{style: c.Style(), values: map[string]any{}}
	s.values[CodeStyleKey.Name] = string(c.Style())
	setInt := func(k *Key, v *int) {
		if v != nil {
			s.values[k.Name] = *v
		}
	}
	setBool := func(k *Key, v *bool) {
		if v != nil {
			s.values[k.Name] = *v
		}
	}
	setInt(IndentSizeKey, c.IndentSize)
	if c.IndentStyle != "" {
		s.values[IndentStyleKey.Name] = c.IndentStyle
	}
	setInt(MaxLineLengthKey, c.MaxLineLength)
	setInt(MaxFormatRunsKey, c.MaxFormatRuns)
	setBool(IgnoreBackTickedIdentifierKey, c.IgnoreBackTickedIdentifier)
	setBool(AllowTrailingCommaKey, c.AllowTrailingComma)
	setBool(AllowTrailingCommaOnCallSiteKey, c.AllowTrailingCommaOnCallSite)
	setInt(MaxConsecutiveBlankLinesKey, c.MaxConsecutiveBlankLines)
	setInt(FunctionSignatureForceMultilineKey, c.FunctionSignatureForceMultiline)
	setInt(ClassSignatureForceMultilineKey, c.ClassSignatureForceMultiline)
	setInt(ArgumentListWrappingIgnoreKey, c.ArgumentListWrappingIgnore)
	return s
}
