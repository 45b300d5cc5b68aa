package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
)

// settings resolves the default configuration with the given overrides.
func settings(overrides map[*config.Key]any) *config.Settings {
	s := config.DefaultConfig().Settings()
	for k, v := range overrides {
		s = s.Override(k, v)
	}
	return s
}

func styled(style config.CodeStyle, overrides map[*config.Key]any) *config.Settings {
	s := (&config.Config{CodeStyle: style}).Settings()
	for k, v := range overrides {
		s = s.Override(k, v)
	}
	return s
}

func engine(t *testing.T, s *config.Settings, rules ...formatter.Factory) *formatter.Engine {
	t.Helper()
	e, err := formatter.New(formatter.Options{Factories: rules, Settings: s, Experimental: true})
	require.NoError(t, err)
	return e
}

// format runs rules over src in format mode.
func format(t *testing.T, src string, s *config.Settings, rules ...formatter.Factory) *formatter.Result {
	t.Helper()
	res, err := engine(t, s, rules...).Format(context.Background(), formatter.Request{Path: "Test.kt", Source: src})
	require.NoError(t, err)
	return res
}

// lint runs rules over src in lint mode.
func lint(t *testing.T, src string, s *config.Settings, rules ...formatter.Factory) *formatter.Result {
	t.Helper()
	res, err := engine(t, s, rules...).Lint(context.Background(), formatter.Request{Path: "Test.kt", Source: src})
	require.NoError(t, err)
	return res
}

func messages(res *formatter.Result) []string {
	out := make([]string, 0, len(res.Findings))
	for _, f := range res.Findings {
		out = append(out, f.Message)
	}
	return out
}

func TestIndentConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		ic   indentConfig
		in   string
		want string
	}{
		{"spaces stay", indentConfig{unit: "    ", size: 4}, "  ", "  "},
		{"tab to spaces", indentConfig{unit: "    ", size: 4}, "\t  ", "      "},
		{"spaces to tabs", indentConfig{unit: "\t", size: 4, tab: true}, "        ", "\t\t"},
		{"partial tab keeps spaces", indentConfig{unit: "\t", size: 4, tab: true}, "      ", "\t  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.ic.normalize(tt.in))
		})
	}
}
