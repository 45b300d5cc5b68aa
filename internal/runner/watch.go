package runner

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/donaldgifford/kfmt/internal/formatter"
)

// debounceWindow is how long watch mode waits for a burst of writes to
// settle before processing the changed files.
const debounceWindow = 200 * time.Millisecond

// watch reprocesses Kotlin files in the directories of files whenever they
// change, until ctx is done. It returns the exit code of the last batch, or
// initial when nothing changed.
func watch(ctx context.Context, opts *Options, engine *formatter.Engine, rep reporter, files []string, initial int, log zerolog.Logger) int {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		writeErr(opts.Stderr, "kfmt: starting watcher: %v\n", err)
		return ExitError
	}
	defer w.Close()

	var dirs []string
	for _, f := range files {
		dir := filepath.Dir(f)
		if slices.Contains(dirs, dir) {
			continue
		}
		if err := w.Add(dir); err != nil {
			writeErr(opts.Stderr, "kfmt: watching %s: %v\n", dir, err)
			return ExitError
		}
		dirs = append(dirs, dir)
	}
	log.Info().Strs("dirs", dirs).Msg("watching for changes")

	code := initial
	pending := map[string]bool{}
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		slices.Sort(batch)
		clear(pending)
		log.Debug().Strs("files", batch).Msg("processing changed files")
		code = runFiles(ctx, opts, engine, rep, batch)
	}

	for {
		select {
		case <-ctx.Done():
			return code
		case event, ok := <-w.Events:
			if !ok {
				return code
			}
			if !isKotlin(event.Name) || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}
		case <-timerC:
			timer, timerC = nil, nil
			flush()
		case err, ok := <-w.Errors:
			if !ok {
				return code
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}
