// Package watcher reports PDF files that appear in a directory.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
// Copies usually arrive as a Create followed by several Writes.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce        time.Duration
	IncludeExisting bool     // Report PDFs already in the directory at start
	Extensions      []string // Lower-case, with dot. Defaults to .pdf
	Logger          *slog.Logger
}

// Watcher watches one directory.
type Watcher struct {
	dir  string
	opts Options
	log  *slog.Logger
}

// New creates a Watcher for dir.
func New(dir string, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".pdf"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, opts: opts, log: logger}
}

// Run calls onFile once per settled file until ctx is cancelled. A path is
// reported again only if it is written again after being reported.
func (w *Watcher) Run(ctx context.Context, onFile func(path string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.log.Info("👀 watching directory", "dir", w.dir)

	if w.opts.IncludeExisting {
		existing, err := w.existing()
		if err != nil {
			return err
		}
		for _, path := range existing {
			onFile(path)
		}
	}

	settled := make(chan string)
	done := make(chan struct{})
	defer close(done)
	deb := newDebouncer(w.opts.Debounce, func(path string) {
		select {
		case settled <- path:
		case <-done:
		}
	})
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			deb.touch(event.Name)

		case path := <-settled:
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				continue
			}
			onFile(path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	// Editors and downloaders write dotfiles and partial files first
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, want := range w.opts.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (w *Watcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", w.dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !w.matches(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(w.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
