// Package shutdown coordinates session teardown. Its main job here is the
// exit/save contract: the final synchronous save of the todo file is
// registered as a cleanup and is guaranteed to run (or report failure)
// before the process exits.
package shutdown

import (
	"context"
	"sync"
)

// CleanupFunc performs one piece of teardown. The context is cancelled
// when the shutdown times out.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager runs registered cleanups in LIFO order on shutdown.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	shutdown bool
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
}

// NewManager creates a shutdown manager.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{ctx: ctx, cancel: cancel}
}

// RegisterCleanup registers a cleanup to run at shutdown. Cleanups run in
// LIFO order, so the final save should be registered first and the watcher
// stop last.
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Shutdown initiates shutdown. Safe to call multiple times; only the first
// call has effect.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()
		m.cancel()
	})
}

// IsShutdown reports whether shutdown has been initiated.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// Context returns a context cancelled when shutdown is initiated.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Wait runs the cleanups and returns the first error, or ctx.Err() if the
// context expires first. Cleanup failures do not stop later cleanups; the
// first one is reported so a failed final save is never silent.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		var first error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i].fn(ctx); err != nil && first == nil {
				first = err
			}
		}
		done <- first
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
