package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fireCounter struct {
	mu    sync.Mutex
	count map[string]int
}

func (f *fireCounter) fire(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count[path]++
}

func (f *fireCounter) get(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count[path]
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	fc := &fireCounter{count: map[string]int{}}
	d := newDebouncer(30*time.Millisecond, fc.fire)
	defer d.stop()

	for i := 0; i < 5; i++ {
		d.touch("a.pdf")
		time.Sleep(5 * time.Millisecond)
	}
	d.touch("b.pdf")

	require.Eventually(t, func() bool { return fc.get("a.pdf") == 1 && fc.get("b.pdf") == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, fc.get("a.pdf"))
	assert.Equal(t, 1, fc.get("b.pdf"))
}

// A timer that fires while a new event holds the lock must not report the
// path a second time once the replacement timer settles.
func TestDebouncer_StaleCallbackDropped(t *testing.T) {
	fc := &fireCounter{count: map[string]int{}}
	d := newDebouncer(10*time.Millisecond, fc.fire)
	defer d.stop()

	d.touch("a.pdf")

	d.mu.Lock()
	// Let the first timer fire and block on mu
	time.Sleep(50 * time.Millisecond)
	d.touchLocked("a.pdf")
	d.mu.Unlock()

	require.Eventually(t, func() bool { return fc.get("a.pdf") >= 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, fc.get("a.pdf"))

	d.mu.Lock()
	assert.Empty(t, d.pending)
	d.mu.Unlock()
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	fc := &fireCounter{count: map[string]int{}}
	d := newDebouncer(20*time.Millisecond, fc.fire)

	d.touch("a.pdf")
	d.stop()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, fc.get("a.pdf"))
}
