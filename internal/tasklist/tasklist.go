// Package tasklist holds the ordered in-memory task collection and its
// persistence to the todo.txt file pair (active + optional archive).
package tasklist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"todotui/internal/task"
)

var (
	// ErrNotFound is returned when an identity is no longer present.
	ErrNotFound = errors.New("task not found")

	// ErrNoArchive is returned when archiving is requested but no archive
	// file is configured.
	ErrNoArchive = errors.New("no archive file configured")
)

// List is an ordered sequence of tasks plus an optional archive sequence.
// Identities are unique across the union of both at all times.
type List struct {
	tasks   []task.Task
	archive []task.Task

	// archiveConfigured gates ArchiveCompleted; set by the caller that
	// resolved an archive path.
	archiveConfigured bool
}

// Load parses the given lines into a list, assigning identities in file
// order. archiveLines may be nil when no archive file is configured.
func Load(lines, archiveLines []string) *List {
	l := &List{archiveConfigured: archiveLines != nil}
	for _, line := range lines {
		l.tasks = append(l.tasks, task.Parse(line))
	}
	for _, line := range archiveLines {
		l.archive = append(l.archive, task.Parse(line))
	}
	return l
}

// SetArchiveConfigured toggles whether an archive file is available.
func (l *List) SetArchiveConfigured(ok bool) {
	l.archiveConfigured = ok
}

// ArchiveConfigured reports whether ArchiveCompleted may be used.
func (l *List) ArchiveConfigured() bool {
	return l.archiveConfigured
}

// Len returns the number of active tasks.
func (l *List) Len() int {
	return len(l.tasks)
}

// Tasks returns the active tasks in file order. The slice is shared;
// callers must not reorder it.
func (l *List) Tasks() []task.Task {
	return l.tasks
}

// Archive returns the archived tasks in order.
func (l *List) Archive() []task.Task {
	return l.archive
}

// Add parses text into a new task and inserts it at pos (clamped; pass
// Len() or -1 for the end). It returns the fresh identity.
func (l *List) Add(text string, pos int) string {
	t := task.New(text)
	if pos < 0 || pos > len(l.tasks) {
		pos = len(l.tasks)
	}
	l.tasks = append(l.tasks, task.Task{})
	copy(l.tasks[pos+1:], l.tasks[pos:])
	l.tasks[pos] = t
	return t.ID()
}

// Insert places an existing task (e.g. one captured for undo) at pos.
func (l *List) Insert(t task.Task, pos int) {
	if pos < 0 || pos > len(l.tasks) {
		pos = len(l.tasks)
	}
	l.tasks = append(l.tasks, task.Task{})
	copy(l.tasks[pos+1:], l.tasks[pos:])
	l.tasks[pos] = t
}

// IndexOf returns the position of id in the active list, or -1.
func (l *List) IndexOf(id string) int {
	for i := range l.tasks {
		if l.tasks[i].ID() == id {
			return i
		}
	}
	return -1
}

// Get returns the task with the given identity.
func (l *List) Get(id string) (*task.Task, bool) {
	if i := l.IndexOf(id); i >= 0 {
		return &l.tasks[i], true
	}
	return nil, false
}

// Delete removes the task with the given identity, returning the removed
// task and its former position for undo capture.
func (l *List) Delete(id string) (task.Task, int, error) {
	i := l.IndexOf(id)
	if i < 0 {
		return task.Task{}, 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := l.tasks[i]
	l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
	return removed, i, nil
}

// Move relocates the task to newPos (clamped), keeping its identity.
func (l *List) Move(id string, newPos int) error {
	i := l.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t := l.tasks[i]
	l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
	if newPos < 0 || newPos > len(l.tasks) {
		newPos = len(l.tasks)
	}
	l.tasks = append(l.tasks, task.Task{})
	copy(l.tasks[newPos+1:], l.tasks[newPos:])
	l.tasks[newPos] = t
	return nil
}

// Replace swaps the stored task for the given identity.
func (l *List) Replace(id string, t task.Task) error {
	i := l.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.tasks[i] = t
	return nil
}

// ArchiveCompleted relocates every completed task from the active list to
// the archive, preserving relative order. It returns the number moved, or
// ErrNoArchive when no archive file is configured.
func (l *List) ArchiveCompleted() (int, error) {
	if !l.archiveConfigured {
		return 0, ErrNoArchive
	}
	var remaining []task.Task
	moved := 0
	for _, t := range l.tasks {
		if t.Completed {
			l.archive = append(l.archive, t)
			moved++
		} else {
			remaining = append(remaining, t)
		}
	}
	l.tasks = remaining
	return moved, nil
}

// Unarchive moves the given identities back from the archive into the
// active list at their recorded positions, oldest position first. Used to
// invert an archive command.
func (l *List) Unarchive(ids []string, positions []int) {
	byID := map[string]int{}
	for i := range l.archive {
		byID[l.archive[i].ID()] = i
	}
	// Collect the tasks, then delete from the archive back-to-front so
	// indices stay valid.
	var take []int
	tasks := map[string]task.Task{}
	for _, id := range ids {
		if i, ok := byID[id]; ok {
			take = append(take, i)
			tasks[id] = l.archive[i]
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(take)))
	for _, i := range take {
		l.archive = append(l.archive[:i], l.archive[i+1:]...)
	}
	for i, id := range ids {
		if t, ok := tasks[id]; ok {
			l.Insert(t, positions[i])
		}
	}
}

// Projects returns the distinct +project tags across active tasks, sorted.
func (l *List) Projects() []string {
	return collectTags(l.tasks, func(t *task.Task) []string { return t.Projects })
}

// Contexts returns the distinct @context tags across active tasks, sorted.
func (l *List) Contexts() []string {
	return collectTags(l.tasks, func(t *task.Task) []string { return t.Contexts })
}

func collectTags(tasks []task.Task, get func(*task.Task) []string) []string {
	seen := map[string]bool{}
	var out []string
	for i := range tasks {
		for _, tag := range get(&tasks[i]) {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Serialize returns the active tasks as todo.txt lines.
func (l *List) Serialize() []string {
	lines := make([]string, len(l.tasks))
	for i := range l.tasks {
		lines[i] = l.tasks[i].String()
	}
	return lines
}

// SerializeArchive returns the archived tasks as todo.txt lines.
func (l *List) SerializeArchive() []string {
	lines := make([]string, len(l.archive))
	for i := range l.archive {
		lines[i] = l.archive[i].String()
	}
	return lines
}

// Save writes the active list to path and, when archivePath is non-empty,
// the archive list to archivePath. Each file is written to a temp file in
// the target directory and atomically renamed over the target, so the
// on-disk file is never observed half-written.
func (l *List) Save(path, archivePath string) error {
	if err := writeAtomic(path, l.Serialize()); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	if archivePath != "" {
		if err := writeAtomic(archivePath, l.SerializeArchive()); err != nil {
			return fmt.Errorf("failed to save archive %s: %w", archivePath, err)
		}
	}
	return nil
}

func writeAtomic(path string, lines []string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadLines reads a file into lines for Load, dropping a trailing empty
// line from the final newline.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}
