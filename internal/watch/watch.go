// Package watch reruns an action whenever a document file changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vlarkus/blitz/internal/logging"
)

// DefaultDebounce groups the burst of events a single editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Action runs after the watched file settles. Its error is logged and the
// watch continues.
type Action func(ctx context.Context, path string) error

// Options configures Run.
type Options struct {
	Debounce time.Duration
	// RunOnStart runs the action once before waiting for changes.
	RunOnStart bool
	Log        logging.Logger
}

// Run watches path until ctx is done and calls action after every change.
// The parent directory is watched so that files replaced by rename, as
// store.SaveFile does, keep being tracked. Actions never overlap.
func Run(ctx context.Context, path string, action Action, opts Options) error {
	if action == nil {
		return errors.New("watch: nil action")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Log
	if log == nil {
		log = logging.Noop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	log = log.With(logging.String("path", abs))
	fire := func() {
		if err := action(ctx, abs); err != nil {
			log.Warn(ctx, "watch action failed", logging.Err(err))
			return
		}
		log.Debug(ctx, "watch action completed")
	}

	if opts.RunOnStart {
		fire()
	}
	log.Info(ctx, "watching for changes")

	timer := time.NewTimer(opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !relevant(ev.Op) {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(opts.Debounce)
			pending = true

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "watcher error", logging.Err(err))

		case <-timer.C:
			pending = false
			fire()
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
