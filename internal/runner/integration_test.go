package runner_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// binaryPath builds the kfmt binary and returns its path.
func binaryPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "kfmt")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}

	cmd := exec.CommandContext(t.Context(), "go", "build", "-o", bin, "../../cmd/kfmt")
	cmd.Dir = filepath.Join(projectRoot(t), "internal", "runner")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, out)
	}
	return bin
}

func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..")
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("unexpected error: %v", err)
	}
	return exitErr.ExitCode()
}

func TestIntegrationStdinFormat(t *testing.T) {
	bin := binaryPath(t)

	cmd := exec.CommandContext(t.Context(), bin, "--format")
	cmd.Stdin = strings.NewReader("fun main() {\n\tprintln(1)   \n}")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "fun main() {\n    println(1)\n}\n"
	if string(out) != want {
		t.Errorf("stdin format: got %q, want %q", string(out), want)
	}
}

func TestIntegrationCheck(t *testing.T) {
	bin := binaryPath(t)

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"formatted", "val a = 1\n", 0},
		{"unformatted", "val a=1\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.CommandContext(t.Context(), bin, "--check")
			cmd.Stdin = strings.NewReader(tt.input)
			if got := exitCode(t, cmd.Run()); got != tt.want {
				t.Errorf("check %s: got exit %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestIntegrationDiff(t *testing.T) {
	bin := binaryPath(t)

	cmd := exec.CommandContext(t.Context(), bin, "--diff")
	cmd.Stdin = strings.NewReader("val a=1\n")
	out, err := cmd.CombinedOutput()
	if got := exitCode(t, err); got != 1 {
		t.Errorf("diff with changes: got exit %d, want 1", got)
	}

	output := string(out)
	if !strings.Contains(output, "-val a=1") {
		t.Errorf("diff missing old line: %s", output)
	}
	if !strings.Contains(output, "+val a = 1") {
		t.Errorf("diff missing new line: %s", output)
	}
}

func TestIntegrationWrite(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.kt")

	if err := os.WriteFile(path, []byte("val a=1"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.CommandContext(t.Context(), bin, "-F", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("write: %v\n%s", err, out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "val a = 1\n" {
		t.Errorf("file after write: got %q", string(data))
	}
}

func TestIntegrationLintReportsFindings(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.kt")

	if err := os.WriteFile(path, []byte("val a = 1   \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.CommandContext(t.Context(), bin, "--color", "never", path)
	out, err := cmd.Output()
	if got := exitCode(t, err); got != 1 {
		t.Errorf("lint: got exit %d, want 1", got)
	}
	want := path + ":1:10: Trailing space(s) (standard:no-trailing-spaces)\n"
	if string(out) != want {
		t.Errorf("lint output: got %q, want %q", string(out), want)
	}
}

func TestIntegrationVersion(t *testing.T) {
	bin := binaryPath(t)

	cmd := exec.CommandContext(t.Context(), bin, "--version")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(string(out), "kfmt version ") {
		t.Errorf("version: got %q", string(out))
	}
}

func TestIntegrationMissingFile(t *testing.T) {
	bin := binaryPath(t)

	cmd := exec.CommandContext(t.Context(), bin, "/nonexistent/Main.kt")
	if got := exitCode(t, cmd.Run()); got != 2 {
		t.Errorf("missing file: got exit %d, want 2", got)
	}
}

func TestIntegrationUnknownFlag(t *testing.T) {
	bin := binaryPath(t)

	cmd := exec.CommandContext(t.Context(), bin, "--no-such-flag")
	if got := exitCode(t, cmd.Run()); got != 2 {
		t.Errorf("unknown flag: got exit %d, want 2", got)
	}
}

func TestIntegrationExplicitConfig(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()

	configPath := filepath.Join(dir, "custom.yml")
	cfg := "indent_size: 2\n"
	if err := os.WriteFile(configPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.CommandContext(t.Context(), bin, "--format", "--config", configPath)
	cmd.Stdin = strings.NewReader("fun main() {\n    println(1)\n}\n")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	want := "fun main() {\n  println(1)\n}\n"
	if string(out) != want {
		t.Errorf("config indent_size: got %q, want %q", string(out), want)
	}
}

func TestIntegrationMultipleFiles(t *testing.T) {
	bin := binaryPath(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "Good.kt")
	bad := filepath.Join(dir, "Bad.kt")
	if err := os.WriteFile(good, []byte("val a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("val a=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.CommandContext(t.Context(), bin, "--check", "--jobs", "2", good, bad)
	if got := exitCode(t, cmd.Run()); got != 1 {
		t.Errorf("check mixed: got exit %d, want 1", got)
	}
}
