package upload

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Tracker converts a running byte count into a percentage. Reported values
// never decrease and 100 is only reported by Done.
type Tracker struct {
	mu    sync.Mutex
	total int64
	last  int
	fn    func(int)
}

// NewTracker returns a tracker for total bytes reporting to fn (may be nil).
func NewTracker(total int64, fn func(int)) *Tracker {
	return &Tracker{total: total, last: -1, fn: fn}
}

// Observe records sent bytes so far.
func (t *Tracker) Observe(sent int64) {
	if t.total <= 0 {
		return
	}
	pct := int(sent * 100 / t.total)
	if pct > 99 {
		pct = 99
	}
	t.report(pct)
}

// Done reports 100.
func (t *Tracker) Done() { t.report(100) }

// Percent returns the last reported value, 0 before any.
func (t *Tracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last < 0 {
		return 0
	}
	return t.last
}

func (t *Tracker) report(pct int) {
	t.mu.Lock()
	if pct <= t.last {
		t.mu.Unlock()
		return
	}
	t.last = pct
	fn := t.fn
	t.mu.Unlock()
	if fn != nil {
		fn(pct)
	}
}

// ErrBusy is returned when a form is already submitting.
var ErrBusy = errors.New("a submission is already in progress")

// Guard allows one submission at a time for one form.
type Guard struct {
	busy atomic.Bool
}

// Do runs fn unless another Do is in flight.
func (g *Guard) Do(fn func() error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer g.busy.Store(false)
	return fn()
}

// Busy reports whether a submission is in flight.
func (g *Guard) Busy() bool { return g.busy.Load() }

// Forms hands out one Guard per form key.
type Forms struct {
	m sync.Map
}

// Do runs fn under the guard of form.
func (f *Forms) Do(form string, fn func() error) error {
	g, _ := f.m.LoadOrStore(form, &Guard{})
	return g.(*Guard).Do(fn)
}
