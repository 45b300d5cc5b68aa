package runner

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startWatch runs a watch session on path and blocks until the watcher is
// armed. The returned channel yields the exit code once ctx is cancelled.
func startWatch(t *testing.T, ctx context.Context, path string, stdout, stderr *syncBuffer) <-chan int {
	t.Helper()
	var logs syncBuffer
	log := zerolog.New(&logs).Level(zerolog.InfoLevel)
	done := make(chan int, 1)
	go func() {
		done <- Run(ctx, &Options{
			Files:  []string{path},
			Watch:  true,
			Stdin:  strings.NewReader(""),
			Stdout: stdout,
			Stderr: stderr,
			Logger: &log,
		})
	}()
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "watching for changes")
	}, 5*time.Second, 10*time.Millisecond, "watcher never armed")
	return done
}

func waitExit(t *testing.T, cancel context.CancelFunc, done <-chan int) int {
	t.Helper()
	cancel()
	select {
	case code := <-done:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
		return -1
	}
}

func TestWatchRelintsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeKotlin(t, dir, "a.kt", clean)
	writeKotlin(t, dir, "notes.txt", clean)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := startWatch(t, ctx, path, &stdout, &stderr)
	assert.Empty(t, stdout.String(), "clean file reported on the initial run")

	require.NoError(t, os.WriteFile(path, []byte(messy), 0o644))
	want := path + ":1:10: Trailing space(s) (standard:no-trailing-spaces)\n"
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), want)
	}, 10*time.Second, 50*time.Millisecond)

	assert.Equal(t, ExitFindings, waitExit(t, cancel, done))
	assert.Empty(t, stderr.String())
}

func TestWatchKeepsInitialExitCode(t *testing.T) {
	dir := t.TempDir()
	path := writeKotlin(t, dir, "a.kt", messy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := startWatch(t, ctx, path, &stdout, &stderr)

	assert.Equal(t, ExitFindings, waitExit(t, cancel, done))
	assert.Contains(t, stdout.String(), "standard:no-trailing-spaces")
	assert.Empty(t, stderr.String())
}
