package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/docpost-api/internal/logging"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, dir string, opts Options) *recorder {
	t.Helper()
	opts.Logger = logging.Discard()
	if opts.Debounce == 0 {
		opts.Debounce = 50 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan error, 1)
	go func() { done <- New(dir, opts).Run(ctx, rec.add) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	// Give fsnotify a moment to register the directory
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestReportsNewPDFOnce(t *testing.T) {
	dir := t.TempDir()
	rec := startWatcher(t, dir, Options{})

	path := filepath.Join(dir, "Report.PDF")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.WriteString("%PDF-1.4\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{path}, rec.snapshot())
}

func TestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	rec := startWatcher(t, dir, Options{})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.pdf"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{filepath.Join(dir, "real.pdf")}, rec.snapshot())
}

func TestIncludeExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	rec := startWatcher(t, dir, Options{IncludeExisting: true})
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf")}, rec.snapshot())
}

func TestRunMissingDirectory(t *testing.T) {
	err := New(filepath.Join(t.TempDir(), "nope"), Options{Logger: logging.Discard()}).Run(context.Background(), func(string) {})
	assert.Error(t, err)
}
