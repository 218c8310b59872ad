package watcher

import (
	"sync"
	"time"
)

// debouncer calls fire once per path after the path has been quiet for delay.
//
// Each touch replaces the pending timer and bumps the path's generation. A
// callback that already fired but lost the race for mu sees a newer
// generation and does nothing, so a path is never reported twice for one
// burst of events.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*pendingPath
	fire    func(path string)
}

type pendingPath struct {
	timer *time.Timer
	gen   uint64
}

func newDebouncer(delay time.Duration, fire func(path string)) *debouncer {
	return &debouncer{delay: delay, pending: make(map[string]*pendingPath), fire: fire}
}

// touch (re)starts the quiet period for path.
func (d *debouncer) touch(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touchLocked(path)
}

func (d *debouncer) touchLocked(path string) {
	p, ok := d.pending[path]
	if !ok {
		p = &pendingPath{}
		d.pending[path] = p
	} else {
		p.timer.Stop()
	}
	p.gen++
	gen := p.gen
	p.timer = time.AfterFunc(d.delay, func() { d.settle(path, gen) })
}

func (d *debouncer) settle(path string, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[path]
	if !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	d.mu.Unlock()
	d.fire(path)
}

// stop cancels every pending report.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
}
