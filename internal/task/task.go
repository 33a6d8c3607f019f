// Package task implements parsing and serialization of single todo.txt lines.
// Parsing is lenient: any line yields a Task, and lines that carry no
// recognizable todo.txt syntax survive verbatim as plain body text.
package task

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the ISO date format used for creation and completion dates.
const DateLayout = "2006-01-02"

var (
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	priorityPattern = regexp.MustCompile(`^\([A-Z]\)$`)
	metadataPattern = regexp.MustCompile(`^([^\s:]+):([^\s:]+)$`)
)

// Task is one todo.txt line. The zero value is not useful; construct tasks
// with Parse or New.
type Task struct {
	id string

	// raw caches the exact original line for lossless serialization.
	// It is invalidated (rebuilt canonically) by mutators.
	raw string

	Completed      bool
	CompletionDate string // ISO date, empty if none
	CreationDate   string // ISO date, empty if none
	Priority       byte   // 'A'..'Z', 0 for none

	// Body is the free text with +project, @context, and key:value tokens
	// interleaved in their original positions.
	Body string

	Projects []string
	Contexts []string
	Metadata map[string]string

	// Structured reports whether any todo.txt syntax (marker, priority,
	// dates, tags) was recognized; false means the line survives only as
	// verbatim body text.
	Structured bool
}

// generateID returns a fresh opaque task identity.
func generateID() string {
	return uuid.New().String()
}

// ID returns the task's stable identity. It never changes across edits,
// reordering, or undo/redo.
func (t *Task) ID() string {
	return t.id
}

// New constructs a programmatic task from text, assigning a fresh identity.
func New(text string) Task {
	t := Parse(text)
	return t
}

// Parse parses one todo.txt line. It never fails: every line produces a
// Task, and the original line is reproduced byte-for-byte by String.
func Parse(line string) Task {
	t := Task{
		id:       generateID(),
		raw:      line,
		Metadata: map[string]string{},
	}

	rest := line

	// Completion marker: a lowercase "x" followed by a space.
	if strings.HasPrefix(rest, "x ") {
		t.Completed = true
		t.Structured = true
		rest = rest[2:]

		// After "x", two dates are completion then creation; a single
		// date is the creation date only.
		first, tail := splitDate(rest)
		if first != "" {
			second, tail2 := splitDate(tail)
			if second != "" {
				t.CompletionDate = first
				t.CreationDate = second
				rest = tail2
			} else {
				t.CreationDate = first
				rest = tail
			}
		}
	} else {
		// Priority applies only to incomplete tasks.
		if tok, tail, ok := splitToken(rest); ok && priorityPattern.MatchString(tok) {
			t.Priority = tok[1]
			t.Structured = true
			rest = tail
		}
		if first, tail := splitDate(rest); first != "" {
			t.CreationDate = first
			t.Structured = true
			rest = tail
		}
	}

	t.Body = rest
	t.extractTags()
	return t
}

// splitToken splits off the first space-delimited token. ok is false when
// the input is empty.
func splitToken(s string) (tok, tail string, ok bool) {
	if s == "" {
		return "", "", false
	}
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", true
}

// splitDate splits off a leading ISO date token, returning "" if the first
// token is not a valid calendar date.
func splitDate(s string) (date, tail string) {
	tok, rest, ok := splitToken(s)
	if !ok || !datePattern.MatchString(tok) {
		return "", s
	}
	if _, err := time.Parse(DateLayout, tok); err != nil {
		return "", s
	}
	return tok, rest
}

// extractTags pulls +project, @context, and key:value tokens out of the
// body, preserving the body text itself untouched.
func (t *Task) extractTags() {
	t.Projects = nil
	t.Contexts = nil
	t.Metadata = map[string]string{}

	for _, word := range strings.Fields(t.Body) {
		switch {
		case len(word) > 1 && strings.HasPrefix(word, "+"):
			t.Projects = append(t.Projects, word)
			t.Structured = true
		case len(word) > 1 && strings.HasPrefix(word, "@"):
			t.Contexts = append(t.Contexts, word)
			t.Structured = true
		default:
			// URLs look like key:value but are plain body text.
			if strings.Contains(word, "://") {
				continue
			}
			if m := metadataPattern.FindStringSubmatch(word); m != nil {
				t.Metadata[m[1]] = m[2]
				t.Structured = true
			}
		}
	}
}

// String serializes the task back to a todo.txt line. Tasks produced by
// Parse and not mutated since reproduce their original line exactly;
// mutated or programmatic tasks serialize in canonical field order.
func (t *Task) String() string {
	if t.raw != "" {
		return t.raw
	}
	return t.canonical()
}

// canonical builds the line in canonical order: marker, completion date,
// priority, creation date, body.
func (t *Task) canonical() string {
	var parts []string
	if t.Completed {
		parts = append(parts, "x")
		if t.CompletionDate != "" {
			parts = append(parts, t.CompletionDate)
		}
	} else if t.Priority != 0 {
		parts = append(parts, "("+string(t.Priority)+")")
	}
	if t.CreationDate != "" {
		parts = append(parts, t.CreationDate)
	}
	if t.Body != "" {
		parts = append(parts, t.Body)
	}
	return strings.Join(parts, " ")
}

// invalidate drops the raw cache after a mutation so serialization falls
// back to canonical order.
func (t *Task) invalidate() {
	t.raw = ""
}

// SetPriority sets or clears (pri == 0) the priority letter.
func (t *Task) SetPriority(pri byte) {
	t.Priority = pri
	if pri != 0 {
		t.Structured = true
	}
	t.invalidate()
}

// SetCompleted completes or un-completes the task. Completing stamps the
// completion date with today and drops any priority, per the todo.txt
// convention; un-completing clears the completion date.
//
// TODO: confirm with product whether priority should survive completion
// when no archive file is configured; the drop is unconditional here.
func (t *Task) SetCompleted(done bool) {
	t.SetCompletedAt(done, time.Now())
}

// SetCompletedAt is SetCompleted with an explicit clock, for tests.
func (t *Task) SetCompletedAt(done bool, now time.Time) {
	t.Completed = done
	if done {
		t.CompletionDate = now.Format(DateLayout)
		t.Priority = 0
	} else {
		t.CompletionDate = ""
	}
	t.Structured = true
	t.invalidate()
}

// SetText replaces the task's content by reparsing text, keeping the
// identity.
func (t *Task) SetText(text string) {
	id := t.id
	*t = Parse(text)
	t.id = id
}

// Equal reports whether two tasks carry the same content (identity
// excluded).
func (t *Task) Equal(o *Task) bool {
	return t.String() == o.String()
}
