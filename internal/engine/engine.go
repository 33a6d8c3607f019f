// Package engine applies mutating commands to a task list and keeps the
// undo/redo history. Every command captures enough state on first apply to
// invert itself exactly, including re-inserting tasks under their original
// identity.
package engine

import (
	"fmt"

	"todotui/internal/task"
	"todotui/internal/tasklist"
)

// Command is one undoable mutation. apply returns the affected identity;
// invert restores the list to its observable pre-apply content.
type Command interface {
	apply(l *tasklist.List) (string, error)
	invert(l *tasklist.List) error
}

// Engine owns the list and the undo/redo stacks.
type Engine struct {
	list *tasklist.List
	undo []Command
	redo []Command
}

// New creates an engine over the given list.
func New(l *tasklist.List) *Engine {
	return &Engine{list: l}
}

// List returns the underlying task list.
func (e *Engine) List() *tasklist.List {
	return e.list
}

// Reset swaps in a freshly loaded list and clears all history. Used after
// an external reload, which invalidates every recorded inverse.
func (e *Engine) Reset(l *tasklist.List) {
	e.list = l
	e.undo = nil
	e.redo = nil
}

// Apply validates and applies cmd, records it for undo, and clears the
// redo stack. It returns the affected identity (the new identity for Add).
func (e *Engine) Apply(cmd Command) (string, error) {
	id, err := cmd.apply(e.list)
	if err != nil {
		return "", err
	}
	e.undo = append(e.undo, cmd)
	e.redo = nil
	return id, nil
}

// Undo reverts the most recent command. It returns false when there is
// nothing to undo.
func (e *Engine) Undo() bool {
	if len(e.undo) == 0 {
		return false
	}
	cmd := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	if err := cmd.invert(e.list); err != nil {
		// An inverse can only fail if the history is corrupt; drop the
		// entry rather than retry forever.
		return false
	}
	e.redo = append(e.redo, cmd)
	return true
}

// Redo re-applies the most recently undone command.
func (e *Engine) Redo() bool {
	if len(e.redo) == 0 {
		return false
	}
	cmd := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	if _, err := cmd.apply(e.list); err != nil {
		return false
	}
	e.undo = append(e.undo, cmd)
	return true
}

// CanUndo reports whether the undo stack is non-empty.
func (e *Engine) CanUndo() bool { return len(e.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (e *Engine) CanRedo() bool { return len(e.redo) > 0 }

// ---------------------------------------------------------------------------
// Add

type addCmd struct {
	text string
	pos  int

	// captured on first apply so redo re-inserts the same identity
	added *task.Task
}

// NewAdd inserts a new task parsed from text at pos (-1 for the end).
func NewAdd(text string, pos int) Command {
	return &addCmd{text: text, pos: pos}
}

func (c *addCmd) apply(l *tasklist.List) (string, error) {
	if c.added == nil {
		id := l.Add(c.text, c.pos)
		t, _ := l.Get(id)
		captured := *t
		c.added = &captured
		c.pos = l.IndexOf(id)
		return id, nil
	}
	l.Insert(*c.added, c.pos)
	return c.added.ID(), nil
}

func (c *addCmd) invert(l *tasklist.List) error {
	_, _, err := l.Delete(c.added.ID())
	return err
}

// ---------------------------------------------------------------------------
// Delete

type deleteCmd struct {
	id      string
	removed task.Task
	pos     int
}

// NewDelete removes the task with the given identity.
func NewDelete(id string) Command {
	return &deleteCmd{id: id}
}

func (c *deleteCmd) apply(l *tasklist.List) (string, error) {
	removed, pos, err := l.Delete(c.id)
	if err != nil {
		return "", err
	}
	c.removed = removed
	c.pos = pos
	return c.id, nil
}

func (c *deleteCmd) invert(l *tasklist.List) error {
	l.Insert(c.removed, c.pos)
	return nil
}

// ---------------------------------------------------------------------------
// Edit

type editCmd struct {
	id      string
	newText string
	oldText string
}

// NewEdit replaces the task's full text, reparsing it under the same
// identity.
func NewEdit(id, newText string) Command {
	return &editCmd{id: id, newText: newText}
}

func (c *editCmd) apply(l *tasklist.List) (string, error) {
	t, ok := l.Get(c.id)
	if !ok {
		return "", fmt.Errorf("%w: %s", tasklist.ErrNotFound, c.id)
	}
	c.oldText = t.String()
	t.SetText(c.newText)
	return c.id, nil
}

func (c *editCmd) invert(l *tasklist.List) error {
	t, ok := l.Get(c.id)
	if !ok {
		return fmt.Errorf("%w: %s", tasklist.ErrNotFound, c.id)
	}
	t.SetText(c.oldText)
	return nil
}

// ---------------------------------------------------------------------------
// ToggleComplete

type toggleCmd struct {
	id   string
	prev task.Task
}

// NewToggleComplete flips the completion state. Completing stamps the
// completion date and drops the priority; the captured prior task restores
// both on undo.
func NewToggleComplete(id string) Command {
	return &toggleCmd{id: id}
}

func (c *toggleCmd) apply(l *tasklist.List) (string, error) {
	t, ok := l.Get(c.id)
	if !ok {
		return "", fmt.Errorf("%w: %s", tasklist.ErrNotFound, c.id)
	}
	c.prev = *t
	t.SetCompleted(!t.Completed)
	return c.id, nil
}

func (c *toggleCmd) invert(l *tasklist.List) error {
	return l.Replace(c.id, c.prev)
}

// ---------------------------------------------------------------------------
// SetPriority

type priorityCmd struct {
	id   string
	pri  byte
	prev byte
}

// NewSetPriority sets the priority letter, 0 to clear.
func NewSetPriority(id string, pri byte) Command {
	return &priorityCmd{id: id, pri: pri}
}

func (c *priorityCmd) apply(l *tasklist.List) (string, error) {
	t, ok := l.Get(c.id)
	if !ok {
		return "", fmt.Errorf("%w: %s", tasklist.ErrNotFound, c.id)
	}
	c.prev = t.Priority
	t.SetPriority(c.pri)
	return c.id, nil
}

func (c *priorityCmd) invert(l *tasklist.List) error {
	t, ok := l.Get(c.id)
	if !ok {
		return fmt.Errorf("%w: %s", tasklist.ErrNotFound, c.id)
	}
	t.SetPriority(c.prev)
	return nil
}

// ---------------------------------------------------------------------------
// Move

type moveCmd struct {
	id     string
	newPos int
	oldPos int
}

// NewMove relocates the task to newPos.
func NewMove(id string, newPos int) Command {
	return &moveCmd{id: id, newPos: newPos}
}

func (c *moveCmd) apply(l *tasklist.List) (string, error) {
	c.oldPos = l.IndexOf(c.id)
	if c.oldPos < 0 {
		return "", fmt.Errorf("%w: %s", tasklist.ErrNotFound, c.id)
	}
	if err := l.Move(c.id, c.newPos); err != nil {
		return "", err
	}
	return c.id, nil
}

func (c *moveCmd) invert(l *tasklist.List) error {
	return l.Move(c.id, c.oldPos)
}

// ---------------------------------------------------------------------------
// Archive

type archiveCmd struct {
	ids       []string
	positions []int
	count     int
}

// NewArchive relocates all completed tasks to the archive. It fails with
// tasklist.ErrNoArchive when no archive file is configured; callers report
// that to the user rather than swallowing it.
func NewArchive() Command {
	return &archiveCmd{}
}

func (c *archiveCmd) apply(l *tasklist.List) (string, error) {
	c.ids = nil
	c.positions = nil
	for i, t := range l.Tasks() {
		if t.Completed {
			c.ids = append(c.ids, t.ID())
			c.positions = append(c.positions, i)
		}
	}
	count, err := l.ArchiveCompleted()
	if err != nil {
		return "", err
	}
	c.count = count
	return "", nil
}

func (c *archiveCmd) invert(l *tasklist.List) error {
	l.Unarchive(c.ids, c.positions)
	return nil
}

// Count returns how many tasks the archive command moved, valid after
// Apply.
func (c *archiveCmd) Count() int { return c.count }

// ArchivedCount extracts the moved-task count from an applied archive
// command, 0 for other commands.
func ArchivedCount(cmd Command) int {
	if a, ok := cmd.(*archiveCmd); ok {
		return a.count
	}
	return 0
}
