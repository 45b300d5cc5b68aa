package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/kfmt/internal/formatter"
)

func writeBaseline(t *testing.T, kotlinPath string, line, col int, rule string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baseline.xml")
	doc := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<baseline version="1.0">
    <file name="%s">
        <error line="%d" column="%d" source="%s" />
    </file>
</baseline>
`, baselineName(kotlinPath), line, col, rule)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestBaselineFiltersKnownFindings(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", messy)
	bl := writeBaseline(t, path, 1, 10, "standard:no-trailing-spaces")

	code, stdout, stderr := run(t, &Options{Files: []string{path}, Baseline: bl})

	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestBaselineReportsNewFindings(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", messy)
	bl := writeBaseline(t, path, 1, 11, "standard:no-trailing-spaces")

	code, stdout, _ := run(t, &Options{Files: []string{path}, Baseline: bl})

	assert.Equal(t, ExitFindings, code)
	assert.Contains(t, stdout, path+":1:10:")
}

func TestBaselineWrittenWhenMissing(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", messy)
	bl := filepath.Join(t.TempDir(), "baseline.xml")

	code, stdout, _ := run(t, &Options{Files: []string{path}, Baseline: bl})
	assert.Equal(t, ExitFindings, code)
	assert.Contains(t, stdout, "standard:no-trailing-spaces")

	b, found, err := loadBaseline(bl)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []baselineError{{Line: 1, Column: 10, Source: "standard:no-trailing-spaces"}},
		b.files[baselineName(path)])

	code, stdout, _ = run(t, &Options{Files: []string{path}, Baseline: bl})
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stdout)
}

func TestBaselineInvalidIsRegenerated(t *testing.T) {
	path := writeKotlin(t, t.TempDir(), "a.kt", messy)
	bl := filepath.Join(t.TempDir(), "baseline.xml")
	require.NoError(t, os.WriteFile(bl, []byte("<baseline><file name=\"a.kt\">"), 0o644))

	code, _, stderr := run(t, &Options{Files: []string{path}, Baseline: bl})
	assert.Equal(t, ExitFindings, code)
	assert.Empty(t, stderr)

	_, found, err := loadBaseline(bl)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestBaselineSkipsCorrectedFindings(t *testing.T) {
	r := newBaselineReporter(filepath.Join(t.TempDir(), "baseline.xml"))
	require.NoError(t, r.report("a.kt", []formatter.Finding{
		{Line: 1, Col: 10, RuleID: "standard:no-trailing-spaces", Corrected: true},
		{Line: 3, Col: 141, RuleID: "standard:max-line-length"},
	}))
	require.NoError(t, r.report("b.kt", []formatter.Finding{
		{Line: 2, Col: 1, RuleID: "standard:indent", Corrected: true},
	}))
	require.NoError(t, r.flush())

	data, err := os.ReadFile(r.path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<error line="3" column="141" source="standard:max-line-length"></error>`)
	assert.NotContains(t, out, "no-trailing-spaces")
	assert.NotContains(t, out, "b.kt")
}

func TestBaselineNilFilterKeepsFindings(t *testing.T) {
	var b *baseline
	fs := []formatter.Finding{{Line: 1, Col: 1, RuleID: "standard:indent"}}
	assert.Equal(t, fs, b.filter("a.kt", fs))
}
