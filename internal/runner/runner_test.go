package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/kfmt/internal/formatter"
)

const (
	messy = "val a = 1   \n"
	clean = "val a = 1\n"
)

func writeKotlin(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func run(t *testing.T, opts *Options) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	opts.Stdout = &out
	opts.Stderr = &errOut
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}
	code = Run(context.Background(), opts)
	return code, out.String(), errOut.String()
}

func TestRunLint(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", messy)

	code, stdout, _ := run(t, &Options{Files: []string{path}, Color: "never"})

	assert.Equal(t, ExitFindings, code)
	assert.Equal(t, path+":1:10: Trailing space(s) (standard:no-trailing-spaces)\n", stdout)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, messy, string(got), "lint must not touch the file")
}

func TestRunLintClean(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", clean)

	code, stdout, stderr := run(t, &Options{Files: []string{path}})

	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestRunFormatWrite(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", messy)

	code, stdout, _ := run(t, &Options{Files: []string{path}, Format: true, Write: true})

	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stdout, "corrected findings are not reported")
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, clean, string(got))
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	bad := writeKotlin(t, dir, "bad.kt", messy)
	good := writeKotlin(t, dir, "good.kt", clean)

	code, _, stderr := run(t, &Options{Files: []string{bad}, Check: true})
	assert.Equal(t, ExitFindings, code)
	assert.Equal(t, bad+"\n", stderr)

	code, _, stderr = run(t, &Options{Files: []string{bad}, Check: true, Quiet: true})
	assert.Equal(t, ExitFindings, code)
	assert.Empty(t, stderr)

	code, _, _ = run(t, &Options{Files: []string{good}, Check: true})
	assert.Equal(t, ExitOK, code)

	got, err := os.ReadFile(bad)
	require.NoError(t, err)
	assert.Equal(t, messy, string(got), "check must not write")
}

func TestRunDiff(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", messy)

	code, stdout, stderr := run(t, &Options{Files: []string{path}, Diff: true, Write: true})

	assert.Equal(t, ExitFindings, code)
	assert.Contains(t, stdout, "--- a/"+path)
	assert.Contains(t, stdout, "+++ b/"+path)
	assert.Contains(t, stdout, "-"+messy)
	assert.Contains(t, stdout, "+"+clean)
	assert.Contains(t, stderr, "1 file changed, 1 insertions(+), 1 deletions(-)")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, messy, string(got), "diff must not write")
}

func TestRunJSONReporter(t *testing.T) {
	dir := t.TempDir()
	a := writeKotlin(t, dir, "a.kt", messy)
	b := writeKotlin(t, dir, "b.kt", clean)

	code, stdout, _ := run(t, &Options{Files: []string{a, b}, Reporter: "json"})
	assert.Equal(t, ExitFindings, code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0]["file"])
	assert.Equal(t, "standard:no-trailing-spaces", got[0]["rule"])
	assert.InDelta(t, 1, got[0]["line"], 0)
	assert.InDelta(t, 10, got[0]["column"], 0)
	assert.Equal(t, true, got[0]["fixable"])
	assert.Equal(t, false, got[0]["corrected"])
}

func TestRunJSONReporterEmpty(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", clean)

	code, stdout, _ := run(t, &Options{Files: []string{path}, Reporter: "json"})

	assert.Equal(t, ExitOK, code)
	assert.JSONEq(t, "[]", stdout)
}

func TestRunStdinFormat(t *testing.T) {
	code, stdout, stderr := run(t, &Options{Format: true, Stdin: strings.NewReader(messy)})

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, clean, stdout)
	assert.Empty(t, stderr)
}

func TestRunStdinLint(t *testing.T) {
	code, stdout, _ := run(t, &Options{Stdin: strings.NewReader(messy)})

	assert.Equal(t, ExitFindings, code)
	assert.Equal(t, "<stdin>:1:10: Trailing space(s) (standard:no-trailing-spaces)\n", stdout)
}

func TestRunDisable(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", messy)

	code, stdout, _ := run(t, &Options{Files: []string{path}, Disable: []string{"standard:no-trailing-spaces"}})

	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stdout)
}

func TestRunDirectory(t *testing.T) {
	dir := t.TempDir()
	writeKotlin(t, dir, "b.kt", messy)
	writeKotlin(t, dir, "sub/a.kts", messy)
	writeKotlin(t, dir, "notes.txt", messy)
	writeKotlin(t, dir, ".hidden/c.kt", messy)

	code, stdout, _ := run(t, &Options{Files: []string{dir}})

	assert.Equal(t, ExitFindings, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], filepath.Join(dir, "b.kt")+":"))
	assert.True(t, strings.HasPrefix(lines[1], filepath.Join(dir, "sub", "a.kts")+":"))
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
		want string
	}{
		{"unknown reporter", &Options{Reporter: "xml"}, `unknown reporter "xml"`},
		{"unknown color", &Options{Color: "sometimes"}, `unknown color mode "sometimes"`},
		{"missing file", &Options{Files: []string{filepath.Join(t.TempDir(), "nope.kt")}}, "nope.kt"},
		{"missing config", &Options{ConfigPath: filepath.Join(t.TempDir(), "kfmt.yml")}, "kfmt.yml"},
		{"watch without files", &Options{Watch: true}, "--watch needs file arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, tt.opts)
			assert.Equal(t, ExitError, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRunDumpTree(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", clean)

	code, stdout, _ := run(t, &Options{Files: []string{path}, DumpTree: true})

	assert.Equal(t, ExitOK, code)
	assert.True(t, strings.HasPrefix(stdout, path+"\n"))
	assert.Contains(t, stdout, `"val"`)
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeKotlin(t, dir, "a.kt", clean)
	writeKotlin(t, dir, "z/b.kt", clean)

	got, err := expandFiles([]string{a, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{a, filepath.Join(dir, "z", "b.kt")}, got)
}

func TestReported(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		corrected bool
		want      int
	}{
		{"lint reports all", Options{}, false, 2},
		{"format reports uncorrected", Options{Format: true}, false, 1},
		{"check reports uncorrected", Options{Check: true}, false, 1},
		{"format keeps corrected on request", Options{Format: true}, true, 2},
		{"diff reports none", Options{Diff: true}, true, 0},
	}
	fs := []formatter.Finding{
		{Line: 1, Col: 10, RuleID: "standard:no-trailing-spaces", Message: "Trailing space(s)", Fixable: true, Corrected: true},
		{Line: 3, Col: 141, RuleID: "standard:max-line-length", Message: "Exceeded max line length (140)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, reported(&tt.opts, fs, tt.corrected), tt.want)
		})
	}
}
