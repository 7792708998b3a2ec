package throttle

import (
	"sync"
	"time"

	"github.com/coreman2200/funtimes-ncube/internal/render"
)

// Driver forwards at most one frame per interval to the wrapped driver, e.g.
// to keep browser previews at ~20 FPS while the engine ticks faster. A frame
// that changes dimension is always forwarded.
type Driver struct {
	next     render.Driver
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastEmit time.Time
	lastDim  int
}

func New(next render.Driver, interval time.Duration) *Driver {
	return &Driver{next: next, interval: interval, now: time.Now}
}

func (d *Driver) Write(f render.Frame) error {
	d.mu.Lock()
	now := d.now()
	if f.Dimension == d.lastDim && d.lastEmit.Add(d.interval).After(now) {
		d.mu.Unlock()
		return nil // throttle
	}
	d.lastEmit = now
	d.lastDim = f.Dimension
	d.mu.Unlock()
	return d.next.Write(f)
}
