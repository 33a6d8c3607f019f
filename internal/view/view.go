// Package view derives the displayed ordering of task identities from the
// list plus the active filter, search, and sort criteria. The projection is
// recomputed wholesale on every change rather than patched incrementally,
// which keeps it trivially consistent with the list.
package view

import (
	"sort"
	"strings"

	"todotui/internal/task"
	"todotui/internal/tasklist"
)

// SortKey selects the active ordering.
type SortKey int

const (
	SortFileOrder SortKey = iota
	SortPriority
	SortCompletion
	SortCreationDate
)

// Predicate filters tasks; nil means all tasks pass.
type Predicate func(*task.Task) bool

// Projection is the derived, non-owned ordered sequence of visible task
// identities, with O(1) row/identity lookups.
type Projection struct {
	list *tasklist.List

	filter          Predicate
	search          string
	caseInsensitive bool
	sortKey         SortKey

	rows    []string
	rowByID map[string]int
}

// New creates a projection over the given list and computes the initial
// view (all tasks, file order).
func New(l *tasklist.List) *Projection {
	p := &Projection{list: l, caseInsensitive: true}
	p.Recompute()
	return p
}

// SetList swaps the underlying list (after a reload) and recomputes.
func (p *Projection) SetList(l *tasklist.List) {
	p.list = l
	p.Recompute()
}

// SetFilter installs a predicate (nil to clear) and recomputes.
func (p *Projection) SetFilter(pred Predicate) {
	p.filter = pred
	p.Recompute()
}

// SetSearch installs a search substring ("" to clear) and recomputes.
// Matching is case-insensitive unless caseInsensitive is false.
func (p *Projection) SetSearch(substr string, caseInsensitive bool) {
	p.search = substr
	p.caseInsensitive = caseInsensitive
	p.Recompute()
}

// SetSort installs the sort key and recomputes.
func (p *Projection) SetSort(key SortKey) {
	p.sortKey = key
	p.Recompute()
}

// Search returns the active search substring.
func (p *Projection) Search() string { return p.search }

// Sort returns the active sort key.
func (p *Projection) Sort() SortKey { return p.sortKey }

// Recompute rebuilds the visible rows: filter AND search over the active
// tasks, then a stable sort by the active key with ties kept in file
// order.
func (p *Projection) Recompute() {
	p.rows = p.rows[:0]

	tasks := p.list.Tasks()
	var visible []int
	for i := range tasks {
		if p.matches(&tasks[i]) {
			visible = append(visible, i)
		}
	}

	less := p.lessFunc(tasks)
	if less != nil {
		sort.SliceStable(visible, func(a, b int) bool {
			return less(&tasks[visible[a]], &tasks[visible[b]])
		})
	}

	p.rowByID = make(map[string]int, len(visible))
	for row, i := range visible {
		id := tasks[i].ID()
		p.rows = append(p.rows, id)
		p.rowByID[id] = row
	}
}

func (p *Projection) matches(t *task.Task) bool {
	if p.filter != nil && !p.filter(t) {
		return false
	}
	if p.search == "" {
		return true
	}
	body, needle := t.Body, p.search
	if p.caseInsensitive {
		body = strings.ToLower(body)
		needle = strings.ToLower(needle)
	}
	return strings.Contains(body, needle)
}

// lessFunc returns nil for file order, which needs no sorting pass.
func (p *Projection) lessFunc(tasks []task.Task) func(a, b *task.Task) bool {
	switch p.sortKey {
	case SortPriority:
		// Prioritized tasks first, A before Z, unprioritized last.
		return func(a, b *task.Task) bool {
			return priorityRank(a) < priorityRank(b)
		}
	case SortCompletion:
		// Incomplete tasks first.
		return func(a, b *task.Task) bool {
			return !a.Completed && b.Completed
		}
	case SortCreationDate:
		// Oldest first, undated last.
		return func(a, b *task.Task) bool {
			return dateRank(a.CreationDate) < dateRank(b.CreationDate)
		}
	default:
		return nil
	}
}

func priorityRank(t *task.Task) int {
	if t.Priority == 0 {
		return 'Z' + 1
	}
	return int(t.Priority)
}

func dateRank(date string) string {
	if date == "" {
		return "9999-99-99"
	}
	return date
}

// Rows returns the visible identities in display order. The slice is owned
// by the projection.
func (p *Projection) Rows() []string {
	return p.rows
}

// Len returns the number of visible rows.
func (p *Projection) Len() int {
	return len(p.rows)
}

// RowOf returns the visible row of the given identity.
func (p *Projection) RowOf(id string) (int, bool) {
	row, ok := p.rowByID[id]
	return row, ok
}

// IdentityAt returns the identity at the given visible row.
func (p *Projection) IdentityAt(row int) (string, bool) {
	if row < 0 || row >= len(p.rows) {
		return "", false
	}
	return p.rows[row], true
}

// RepairSelection picks the identity to select after the previously
// selected task vanished: the task now at the same visible row, or the new
// last row when the deleted task was last. Returns "" for an empty view.
func (p *Projection) RepairSelection(prevRow int) string {
	if len(p.rows) == 0 {
		return ""
	}
	if prevRow >= len(p.rows) {
		prevRow = len(p.rows) - 1
	}
	if prevRow < 0 {
		prevRow = 0
	}
	return p.rows[prevRow]
}
