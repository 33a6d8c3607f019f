// Package reload serializes external file-change notifications and save
// requests against in-progress edits. Notification goroutines never touch
// the task list; they only set pending flags and nudge a single-slot wake
// channel that the UI loop drains at a safe point, so all list mutation
// stays on one logical thread.
package reload

import (
	"sync"
)

// State of the coordinator.
type State int

const (
	// Idle means no save or reload is in flight.
	Idle State = iota
	// Suspended means a save or reload is running; new signals queue.
	Suspended
)

// Coordinator coalesces reload and save signals. At most one of each is
// pending at a time; a pending reload always wins over a pending save,
// since a stale save could overwrite a newer external edit.
type Coordinator struct {
	mu            sync.Mutex
	state         State
	pendingReload bool
	pendingSave   bool

	// wake is a single-slot channel; posting when full is a no-op, which
	// is exactly the coalescing the UI loop wants.
	wake chan struct{}

	reload func() error
	save   func() error
}

// New creates a coordinator. reload re-reads the list from disk (discarding
// unsaved edits and history); save persists it. Both run on the draining
// goroutine, never on the notifier's.
func New(reload, save func() error) *Coordinator {
	return &Coordinator{
		wake:   make(chan struct{}, 1),
		reload: reload,
		save:   save,
	}
}

// State returns the current coordinator state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NotifyChanged records that the file changed on disk. Safe to call from
// any goroutine; rapid repeats coalesce into one pending reload.
func (c *Coordinator) NotifyChanged() {
	c.mu.Lock()
	c.pendingReload = true
	c.mu.Unlock()
	c.nudge()
}

// RequestSave records a save request (autosave timer or explicit).
func (c *Coordinator) RequestSave() {
	c.mu.Lock()
	c.pendingSave = true
	c.mu.Unlock()
	c.nudge()
}

func (c *Coordinator) nudge() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Wake returns the channel the UI loop listens on for pending work.
func (c *Coordinator) Wake() <-chan struct{} {
	return c.wake
}

// Result reports what a Drain pass did.
type Result struct {
	Reloaded  bool
	Saved     bool
	ReloadErr error
	SaveErr   error
}

// Drain runs all pending work to completion. Must be called from the UI
// loop at a safe point (never mid-command). Signals arriving while a
// reload or save is running are picked up by the same pass, reload first.
func (c *Coordinator) Drain() Result {
	var res Result
	for {
		c.mu.Lock()
		var doReload, doSave bool
		switch {
		case c.pendingReload:
			c.pendingReload = false
			doReload = true
		case c.pendingSave:
			c.pendingSave = false
			doSave = true
		default:
			c.state = Idle
			c.mu.Unlock()
			return res
		}
		c.state = Suspended
		c.mu.Unlock()

		if doReload {
			res.Reloaded = true
			if err := c.reload(); err != nil {
				res.ReloadErr = err
			}
		} else if doSave {
			res.Saved = true
			if err := c.save(); err != nil {
				res.SaveErr = err
			}
		}
	}
}
