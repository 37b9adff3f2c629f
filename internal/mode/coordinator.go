// Package mode owns the edit/preview toggle, its keyboard shortcuts and the
// idle hint that nudges the user towards the preview.
package mode

import (
	"strings"
	"sync"
	"time"

	"github.com/kyaoi/mdedit/internal/store"
)

// DefaultHintDelay is the idle period after which the preview hint shows.
const DefaultHintDelay = 2 * time.Second

const (
	ToggleKey = "ctrl+p"
	RevertKey = "esc"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDelay overrides the idle period before the hint appears.
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithScheduler replaces the system timer.
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithOnHint registers a callback invoked after the hint becomes visible.
// It runs on the timer goroutine.
func WithOnHint(fn func()) Option {
	return func(c *Coordinator) {
		c.onHint = fn
	}
}

// Coordinator switches view modes and debounces the preview hint.
type Coordinator struct {
	store  *store.Store
	delay  time.Duration
	sched  Scheduler
	onHint func()

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// New creates a coordinator driving the given store.
func New(s *store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store: s,
		delay: DefaultHintDelay,
		sched: SystemScheduler{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode reports the active view mode.
func (c *Coordinator) Mode() store.ViewMode {
	return c.store.Mode()
}

// SetMode switches to mode. Leaving Edit cancels the pending hint and hides
// it; entering Edit with a non-empty document restarts the idle timer.
func (c *Coordinator) SetMode(mode store.ViewMode) {
	c.store.SetMode(mode)
	c.ContentChanged()
}

// Toggle flips between Edit and Preview and hides the hint.
func (c *Coordinator) Toggle() {
	next := c.store.Mode().Other()
	c.store.SetHintVisible(false)
	c.SetMode(next)
}

// Revert returns from Preview to Edit. It does nothing in Edit.
func (c *Coordinator) Revert() {
	if c.store.Mode() != store.Preview {
		return
	}
	c.SetMode(store.Edit)
}

// HandleKey applies the mode shortcuts and reports whether key was one.
// Escape is only consumed while previewing.
func (c *Coordinator) HandleKey(key string) bool {
	switch key {
	case ToggleKey:
		c.Toggle()
		return true
	case RevertKey:
		if c.store.Mode() != store.Preview {
			return false
		}
		c.Revert()
		return true
	}
	return false
}

// DismissHint hides the hint without touching the timer.
func (c *Coordinator) DismissHint() {
	c.store.SetHintVisible(false)
}

// ContentChanged must be called after every document mutation. While in Edit
// with a non-empty document it restarts the idle timer; otherwise it cancels
// the timer and hides the hint.
func (c *Coordinator) ContentChanged() {
	snap := c.store.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	if snap.Mode != store.Edit || strings.TrimSpace(snap.Content) == "" {
		c.store.SetHintVisible(false)
		return
	}

	gen := c.gen
	c.timer = c.sched.AfterFunc(c.delay, func() { c.fire(gen) })
}

// Stop cancels any pending hint timer.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.cancelLocked()
	c.mu.Unlock()
}

func (c *Coordinator) cancelLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	snap := c.store.Snapshot()
	show := snap.Mode == store.Edit && strings.TrimSpace(snap.Content) != ""
	if show {
		c.store.SetHintVisible(true)
	}
	c.mu.Unlock()

	if show && c.onHint != nil {
		c.onHint()
	}
}
