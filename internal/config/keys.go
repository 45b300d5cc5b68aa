package config

import (
	"fmt"
	"slices"
)

// Key is a configuration setting a rule may read. Default applies unless
// the active code style has an entry in StyleDefaults.
type Key struct {
	Name          string
	Default       any
	StyleDefaults map[CodeStyle]any
}

func (k *Key) defaultFor(style CodeStyle) any {
	if v, ok := k.StyleDefaults[style]; ok {
		return v
	}
	return k.Default
}

// Known keys. Integer keys use 0 for "unset" or "off".
var (
	CodeStyleKey = &Key{Name: "code_style", Default: string(KtlintOfficial)}

	IndentSizeKey  = &Key{Name: "indent_size", Default: 4}
	IndentStyleKey = &Key{Name: "indent_style", Default: "space"}

	MaxLineLengthKey = &Key{
		Name:    "max_line_length",
		Default: 0,
		StyleDefaults: map[CodeStyle]any{
			KtlintOfficial: 140,
			AndroidStudio:  100,
		},
	}

	MaxFormatRunsKey = &Key{Name: "max_format_runs", Default: 3}

	// IgnoreBackTickedIdentifierKey leaves backticked identifiers out of
	// line lengths.
	IgnoreBackTickedIdentifierKey = &Key{Name: "ignore_back_ticked_identifier", Default: false}

	AllowTrailingCommaKey = &Key{
		Name:          "allow_trailing_comma",
		Default:       true,
		StyleDefaults: map[CodeStyle]any{AndroidStudio: false},
	}
	AllowTrailingCommaOnCallSiteKey = &Key{
		Name:          "allow_trailing_comma_on_call_site",
		Default:       true,
		StyleDefaults: map[CodeStyle]any{AndroidStudio: false},
	}

	MaxConsecutiveBlankLinesKey = &Key{Name: "max_consecutive_blank_lines", Default: 1}

	FunctionSignatureForceMultilineKey = &Key{
		Name:          "function_signature_force_multiline_when_parameter_count_greater_or_equal_than",
		Default:       0,
		StyleDefaults: map[CodeStyle]any{KtlintOfficial: 2},
	}
	ClassSignatureForceMultilineKey = &Key{
		Name:          "class_signature_force_multiline_when_parameter_count_greater_or_equal_than",
		Default:       0,
		StyleDefaults: map[CodeStyle]any{KtlintOfficial: 1},
	}
	ArgumentListWrappingIgnoreKey = &Key{
		Name:          "argument_list_wrapping_ignore_when_parameter_count_greater_or_equal_than",
		Default:       8,
		StyleDefaults: map[CodeStyle]any{KtlintOfficial: 0},
	}
)

// Settings is the resolved configuration of one run.
type Settings struct {
	style  CodeStyle
	values map[string]any
}

// Style returns the active code style.
func (s *Settings) Style() CodeStyle { return s.style }

// Override returns a copy of s with key set to value.
func (s *Settings) Override(k *Key, value any) *Settings {
	out := &Settings{style: s.style, values: make(map[string]any, len(s.values)+1)}
	for name, v := range s.values {
		out.values[name] = v
	}
	out.values[k.Name] = value
	return out
}

func (s *Settings) value(k *Key) any {
	if v, ok := s.values[k.Name]; ok {
		return v
	}
	return k.defaultFor(s.style)
}

// Int returns the value of an integer key.
func (s *Settings) Int(k *Key) int {
	v, _ := s.value(k).(int)
	return v
}

// Bool returns the value of a boolean key.
func (s *Settings) Bool(k *Key) bool {
	v, _ := s.value(k).(bool)
	return v
}

// String returns the value of a string key.
func (s *Settings) String(k *Key) string {
	v, _ := s.value(k).(string)
	return v
}

// Snapshot returns a view of s restricted to keys.
func (s *Settings) Snapshot(keys []*Key) *Snapshot {
	return &Snapshot{settings: s, keys: slices.Clone(keys)}
}

// UndeclaredKeyError is the panic value raised when a rule reads a key it
// did not declare.
type UndeclaredKeyError struct {
	Key string
}

func (e *UndeclaredKeyError) Error() string {
	return fmt.Sprintf("read of undeclared configuration key %q", e.Key)
}

// Snapshot is the configuration view handed to a single rule.
type Snapshot struct {
	settings *Settings
	keys     []*Key
}

func (v *Snapshot) check(k *Key) {
	if !slices.Contains(v.keys, k) {
		panic(&UndeclaredKeyError{Key: k.Name})
	}
}

// Int returns the value of a declared integer key.
func (v *Snapshot) Int(k *Key) int {
	v.check(k)
	return v.settings.Int(k)
}

// Bool returns the value of a declared boolean key.
func (v *Snapshot) Bool(k *Key) bool {
	v.check(k)
	return v.settings.Bool(k)
}

// String returns the value of a declared string key.
func (v *Snapshot) String(k *Key) string {
	v.check(k)
	return v.settings.String(k)
}

// IndentUnit returns one level of indentation: a tab, or indent_size
// spaces. Both indent keys must be declared.
func (v *Snapshot) IndentUnit() string {
	if v.String(IndentStyleKey) == "tab" {
		return "\t"
	}
	n := v.Int(IndentSizeKey)
	if n <= 0 {
		n = 4
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
