// Package session wires the task list, edit engine, view projection, and
// reload coordinator into the single context object the UI drives. All
// list mutation funnels through Session methods on the UI goroutine; the
// watcher and autosave timer only post signals.
package session

import (
	"fmt"
	"os"
	"sync"
	"time"

	"todotui/internal/engine"
	"todotui/internal/reload"
	"todotui/internal/tasklist"
	"todotui/internal/utils"
	"todotui/internal/view"
	"todotui/internal/watcher"
)

// Session owns one editing session over a todo file pair.
type Session struct {
	Path        string
	ArchivePath string

	Engine *engine.Engine
	View   *view.Projection
	Coord  *reload.Coordinator

	watch *watcher.Watcher

	autosaveStop chan struct{}
	autosaveOnce sync.Once
}

// New loads the todo file (and archive, when configured) and builds the
// session. A missing todo file yields an empty list; an unreadable one is
// logged and also degrades to an empty list so the session stays usable.
func New(path, archivePath string) *Session {
	lines, err := tasklist.ReadLines(path)
	if err != nil {
		if !os.IsNotExist(err) {
			utils.Warnf("unable to read %s, starting empty: %v", path, err)
		}
		lines = []string{}
	}

	var archiveLines []string
	if archivePath != "" {
		archiveLines, err = tasklist.ReadLines(archivePath)
		if err != nil {
			archiveLines = []string{}
		}
	}

	list := tasklist.Load(lines, archiveLines)
	list.SetArchiveConfigured(archivePath != "")

	s := &Session{
		Path:        path,
		ArchivePath: archivePath,
		Engine:      engine.New(list),
	}
	s.View = view.New(list)
	s.Coord = reload.New(s.reloadFromDisk, s.saveToDisk)
	return s
}

// List returns the current task list.
func (s *Session) List() *tasklist.List {
	return s.Engine.List()
}

// ---------------------------------------------------------------------------
// Command surface (each mutator recomputes the projection)

// Add appends (pos < 0) or inserts a new task, returning its identity.
func (s *Session) Add(text string, pos int) (string, error) {
	return s.apply(engine.NewAdd(text, pos))
}

// Edit replaces a task's full text.
func (s *Session) Edit(id, text string) error {
	_, err := s.apply(engine.NewEdit(id, text))
	return err
}

// Delete removes a task.
func (s *Session) Delete(id string) error {
	_, err := s.apply(engine.NewDelete(id))
	return err
}

// ToggleComplete flips completion state.
func (s *Session) ToggleComplete(id string) error {
	_, err := s.apply(engine.NewToggleComplete(id))
	return err
}

// SetPriority sets the priority letter, 0 to clear.
func (s *Session) SetPriority(id string, pri byte) error {
	_, err := s.apply(engine.NewSetPriority(id, pri))
	return err
}

// Move relocates a task to a new file position.
func (s *Session) Move(id string, newPos int) error {
	_, err := s.apply(engine.NewMove(id, newPos))
	return err
}

// Archive moves completed tasks to the archive list, returning the count.
// Errors with tasklist.ErrNoArchive when no archive file is configured.
func (s *Session) Archive() (int, error) {
	cmd := engine.NewArchive()
	if _, err := s.Engine.Apply(cmd); err != nil {
		return 0, err
	}
	s.View.Recompute()
	return engine.ArchivedCount(cmd), nil
}

func (s *Session) apply(cmd engine.Command) (string, error) {
	id, err := s.Engine.Apply(cmd)
	if err != nil {
		return "", err
	}
	s.View.Recompute()
	return id, nil
}

// Undo reverts the last command.
func (s *Session) Undo() bool {
	ok := s.Engine.Undo()
	if ok {
		s.View.Recompute()
	}
	return ok
}

// Redo re-applies the last undone command.
func (s *Session) Redo() bool {
	ok := s.Engine.Redo()
	if ok {
		s.View.Recompute()
	}
	return ok
}

// ---------------------------------------------------------------------------
// Persistence and reload

// Save persists both files synchronously, muting the watcher so our own
// atomic rename does not echo back as an external change.
func (s *Session) Save() error {
	return s.saveToDisk()
}

// muteGrace keeps the watcher muted briefly after our own save so the
// rename event, which arrives asynchronously, cannot echo back as an
// external change. An actual external edit landing inside this window is
// swallowed; the next one reloads normally.
const muteGrace = 300 * time.Millisecond

func (s *Session) saveToDisk() error {
	if s.watch != nil {
		s.watch.Mute()
		defer time.AfterFunc(muteGrace, s.watch.Unmute)
	}
	return s.List().Save(s.Path, s.ArchivePath)
}

// reloadFromDisk discards unsaved in-memory edits in favor of the external
// change and invalidates all undo/redo history.
func (s *Session) reloadFromDisk() error {
	lines, err := tasklist.ReadLines(s.Path)
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	var archiveLines []string
	if s.ArchivePath != "" {
		archiveLines, _ = tasklist.ReadLines(s.ArchivePath)
		if archiveLines == nil {
			archiveLines = []string{}
		}
	}
	list := tasklist.Load(lines, archiveLines)
	list.SetArchiveConfigured(s.ArchivePath != "")
	s.Engine.Reset(list)
	s.View.SetList(list)
	utils.Infof("reloaded %s after external change (%d tasks)", s.Path, list.Len())
	return nil
}

// Drain runs pending reload/save work. Call only from the UI goroutine at
// a safe point, never mid-command.
func (s *Session) Drain() reload.Result {
	return s.Coord.Drain()
}

// StartWatching begins watching the todo file for external changes.
func (s *Session) StartWatching() error {
	w, err := watcher.New(watcher.Config{
		Path:     s.Path,
		OnChange: s.Coord.NotifyChanged,
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return err
	}
	s.watch = w
	return nil
}

// StartAutosave posts a save request every interval; 0 disables autosave.
func (s *Session) StartAutosave(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.autosaveStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Coord.RequestSave()
			case <-s.autosaveStop:
				return
			}
		}
	}()
}

// Close stops the watcher and autosave timer.
func (s *Session) Close() {
	if s.watch != nil {
		s.watch.Stop()
	}
	s.autosaveOnce.Do(func() {
		if s.autosaveStop != nil {
			close(s.autosaveStop)
		}
	})
}
