package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. KFMT_INDENT_SIZE.
const EnvPrefix = "KFMT_"

// configFileNames is the ordered list of config file names to search for.
var configFileNames = []string{
	"kfmt.yml",
	"kfmt.yaml",
	".kfmt.yml",
	".kfmt.yaml",
	"kfmt.toml",
	".kfmt.toml",
}

// Discover returns the path of the first config file found in dir,
// following the standard search order. It returns an empty string if
// no config file is found.
func Discover(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads a kfmt config file, applies KFMT_ environment overrides and
// validates the result. If configPath is non-empty, that file is loaded
// directly. Otherwise, Load searches the current working directory using
// Discover. Without a config file the defaults plus the environment are
// used.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		configPath = Discover(wd)
	}

	cfg := DefaultConfig()
	if configPath != "" {
		if err := decodeFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays the KFMT_ variables that are set onto cfg. The
// environment is parsed into an empty Config first, since env descends into
// non-nil pointers the file decode may have left behind.
func applyEnv(cfg *Config) error {
	var fromEnv Config
	if err := env.ParseWithOptions(&fromEnv, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	overlay(reflect.ValueOf(cfg).Elem(), reflect.ValueOf(fromEnv))
	return nil
}

// overlay copies every non-zero field of src onto dst, descending into
// nested structs.
func overlay(dst, src reflect.Value) {
	for i := range src.NumField() {
		f := src.Field(i)
		if f.Kind() == reflect.Struct {
			overlay(dst.Field(i), f)
			continue
		}
		if !f.IsZero() {
			dst.Field(i).Set(f)
		}
	}
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

var ruleIDPattern = regexp.MustCompile(`^([a-z][a-z0-9-]*:)?[a-z][a-z0-9-]*$`)

// ValidRuleID reports whether id is a rule id, optionally qualified with a
// ruleset ("standard:indent" or "indent").
func ValidRuleID(id string) bool { return ruleIDPattern.MatchString(id) }

// ValidationError lists every invalid setting of a configuration.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Messages, "; ")
}

// Validate checks the configuration using struct tags.
func Validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("ruleid", func(fl validator.FieldLevel) bool {
		return ValidRuleID(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("registering ruleid validation: %w", err)
	}

	if err := v.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, e := range verrs {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		var msg string
		switch e.Tag() {
		case "min":
			msg = fmt.Sprintf("%s must be at least %s", field, e.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s", field, e.Param())
		case "oneof":
			msg = fmt.Sprintf("%s must be one of: %s", field, e.Param())
		case "ruleid":
			msg = fmt.Sprintf("%s: %q is not a rule id", field, e.Value())
		default:
			msg = fmt.Sprintf("%s failed validation: %s", field, e.Tag())
		}
		out.Messages = append(out.Messages, msg)
	}
	return out
}
