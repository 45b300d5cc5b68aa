// Package testutil provides golden file helpers for formatter tests.
//
// A golden case is a directory holding input.kt and expected.kt, plus an
// optional expected.txt with the findings a lint of input.kt reports.
// Run the tests with -update to rewrite the expected files from the
// current output.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

// Update regenerates golden files from current output.
var Update = flag.Bool("update", false, "update golden files")

const (
	inputFile    = "input.kt"
	expectedFile = "expected.kt"
	findingsFile = "expected.txt"
)

// Funcs are the operations a golden case exercises. Lint may be nil when
// findings are not compared.
type Funcs struct {
	// Format returns the formatted source.
	Format func(t *testing.T, input string) string
	// Lint returns the findings for input, one per line.
	Lint func(t *testing.T, input string) string
}

// RunGolden runs the golden case in dir. The formatted output must match
// expected.kt and format to itself again. When expected.txt exists, or
// when updating, the lint findings are compared as well.
func RunGolden(t *testing.T, dir string, fns Funcs) {
	t.Helper()

	input := readGolden(t, filepath.Join(dir, inputFile))

	actual := fns.Format(t, input)
	compareGolden(t, filepath.Join(dir, expectedFile), actual)
	if again := fns.Format(t, actual); again != actual {
		t.Errorf("formatting %s is not idempotent:\n--- first\n%s\n--- second\n%s", dir, actual, again)
	}

	if fns.Lint == nil {
		return
	}
	findingsPath := filepath.Join(dir, findingsFile)
	if _, err := os.Stat(findingsPath); err != nil && !*Update {
		return
	}
	compareGolden(t, findingsPath, fns.Lint(t, input))
}

// RunGoldenDir runs RunGolden for every subdirectory of testdataDir as a
// subtest.
func RunGoldenDir(t *testing.T, testdataDir string, fns Funcs) {
	t.Helper()

	entries, err := os.ReadDir(testdataDir)
	if err != nil {
		t.Fatalf("failed to read testdata dir %s: %v", testdataDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		t.Run(entry.Name(), func(t *testing.T) {
			RunGolden(t, filepath.Join(testdataDir, entry.Name()), fns)
		})
	}
}

// compareGolden checks actual against the file at path, or rewrites the
// file with -update.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if *Update {
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			t.Fatalf("failed to update golden file %s: %v", path, err)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected := readGolden(t, path)
	if actual != expected {
		t.Errorf("mismatch for %s:\n--- expected\n%s\n--- actual\n%s", path, expected, actual)
	}
}

func readGolden(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
