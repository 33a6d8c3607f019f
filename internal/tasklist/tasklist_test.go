package tasklist_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"todotui/internal/tasklist"
)

func TestLoadAssignsIdentitiesInFileOrder(t *testing.T) {
	l := tasklist.Load([]string{"first", "second", "third"}, nil)

	if l.Len() != 3 {
		t.Fatalf("len = %d", l.Len())
	}
	seen := map[string]bool{}
	for i, tk := range l.Tasks() {
		if tk.ID() == "" {
			t.Fatalf("task %d has no identity", i)
		}
		if seen[tk.ID()] {
			t.Fatalf("duplicate identity %s", tk.ID())
		}
		seen[tk.ID()] = true
	}
	if got := l.Serialize(); !reflect.DeepEqual(got, []string{"first", "second", "third"}) {
		t.Errorf("serialize = %v", got)
	}
}

func TestAddDeleteMove(t *testing.T) {
	l := tasklist.Load([]string{"a", "b"}, nil)

	id := l.Add("c", 1)
	if got := l.Serialize(); !reflect.DeepEqual(got, []string{"a", "c", "b"}) {
		t.Fatalf("after insert: %v", got)
	}

	if err := l.Move(id, 2); err != nil {
		t.Fatal(err)
	}
	if got := l.Serialize(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("after move: %v", got)
	}

	removed, pos, err := l.Delete(id)
	if err != nil {
		t.Fatal(err)
	}
	if removed.String() != "c" || pos != 2 {
		t.Errorf("removed %q at %d", removed.String(), pos)
	}

	if _, _, err := l.Delete("no-such-id"); !errors.Is(err, tasklist.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAddAppendsByDefault(t *testing.T) {
	l := tasklist.Load([]string{"a"}, nil)
	id := l.Add("z", -1)
	if l.IndexOf(id) != 1 {
		t.Errorf("index = %d, want 1", l.IndexOf(id))
	}
}

func TestIdentityStableAcrossMutation(t *testing.T) {
	l := tasklist.Load([]string{"a", "b", "c"}, nil)
	ids := make([]string, 3)
	for i, tk := range l.Tasks() {
		ids[i] = tk.ID()
	}

	if err := l.Move(ids[0], 2); err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		if _, ok := l.Get(id); !ok {
			t.Errorf("identity %s lost after move", id)
		}
	}
}

func TestArchiveCompleted(t *testing.T) {
	lines := []string{"x done one", "open one", "x done two", "open two"}

	t.Run("relocates preserving order", func(t *testing.T) {
		l := tasklist.Load(lines, []string{})

		count, err := l.ArchiveCompleted()
		if err != nil {
			t.Fatal(err)
		}
		if count != 2 {
			t.Errorf("count = %d", count)
		}
		if got := l.Serialize(); !reflect.DeepEqual(got, []string{"open one", "open two"}) {
			t.Errorf("active = %v", got)
		}
		if got := l.SerializeArchive(); !reflect.DeepEqual(got, []string{"x done one", "x done two"}) {
			t.Errorf("archive = %v", got)
		}
	})

	t.Run("appends to existing archive", func(t *testing.T) {
		l := tasklist.Load([]string{"x new done"}, []string{"x old done"})
		if _, err := l.ArchiveCompleted(); err != nil {
			t.Fatal(err)
		}
		if got := l.SerializeArchive(); !reflect.DeepEqual(got, []string{"x old done", "x new done"}) {
			t.Errorf("archive = %v", got)
		}
	})

	t.Run("errors without configured archive", func(t *testing.T) {
		l := tasklist.Load(lines, nil)
		if _, err := l.ArchiveCompleted(); !errors.Is(err, tasklist.ErrNoArchive) {
			t.Errorf("err = %v, want ErrNoArchive", err)
		}
	})
}

func TestProjectsAndContexts(t *testing.T) {
	l := tasklist.Load([]string{
		"task +work @office",
		"task +home",
		"task +work @phone",
	}, nil)

	if got := l.Projects(); !reflect.DeepEqual(got, []string{"+home", "+work"}) {
		t.Errorf("projects = %v", got)
	}
	if got := l.Contexts(); !reflect.DeepEqual(got, []string{"@office", "@phone"}) {
		t.Errorf("contexts = %v", got)
	}
}

func TestSave(t *testing.T) {
	t.Run("writes both files", func(t *testing.T) {
		dir := t.TempDir()
		todoPath := filepath.Join(dir, "todo.txt")
		archivePath := filepath.Join(dir, "done.txt")

		l := tasklist.Load([]string{"(A) task one", "x done task"}, []string{"x archived"})
		if err := l.Save(todoPath, archivePath); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(todoPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "(A) task one\nx done task\n" {
			t.Errorf("todo file:\n%q", data)
		}

		data, err = os.ReadFile(archivePath)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "x archived\n" {
			t.Errorf("archive file:\n%q", data)
		}
	})

	t.Run("replaces existing content atomically", func(t *testing.T) {
		dir := t.TempDir()
		todoPath := filepath.Join(dir, "todo.txt")
		if err := os.WriteFile(todoPath, []byte("stale\n"), 0644); err != nil {
			t.Fatal(err)
		}

		l := tasklist.Load([]string{"fresh"}, nil)
		if err := l.Save(todoPath, ""); err != nil {
			t.Fatal(err)
		}

		data, _ := os.ReadFile(todoPath)
		if string(data) != "fresh\n" {
			t.Errorf("content = %q", data)
		}
		// No leftover temp files.
		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("dir has %d entries, want 1", len(entries))
		}
	})

	t.Run("surfaces unwritable directory", func(t *testing.T) {
		l := tasklist.Load([]string{"a"}, nil)
		err := l.Save(filepath.Join(t.TempDir(), "missing", "todo.txt"), "")
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("empty list writes empty file", func(t *testing.T) {
		dir := t.TempDir()
		todoPath := filepath.Join(dir, "todo.txt")
		l := tasklist.Load(nil, nil)
		if err := l.Save(todoPath, ""); err != nil {
			t.Fatal(err)
		}
		data, _ := os.ReadFile(todoPath)
		if len(data) != 0 {
			t.Errorf("content = %q, want empty", data)
		}
	})
}

func TestReadLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todo.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0644); err != nil {
		t.Fatal(err)
	}

	lines, err := tasklist.ReadLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lines, []string{"one", "two"}) {
		t.Errorf("lines = %v", lines)
	}

	// Round trip through Save and ReadLines.
	l := tasklist.Load(lines, nil)
	if err := l.Save(path, ""); err != nil {
		t.Fatal(err)
	}
	again, err := tasklist.ReadLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again, lines) {
		t.Errorf("round trip = %v", again)
	}
}
