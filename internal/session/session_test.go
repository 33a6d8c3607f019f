package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"todotui/internal/session"
	"todotui/internal/tasklist"
)

func newSessionDir(t *testing.T, todoContent string, withArchive bool) (s *session.Session, todoPath, archivePath string) {
	t.Helper()

	dir := t.TempDir()
	todoPath = filepath.Join(dir, "todo.txt")
	if err := os.WriteFile(todoPath, []byte(todoContent), 0644); err != nil {
		t.Fatal(err)
	}
	if withArchive {
		archivePath = filepath.Join(dir, "done.txt")
	}
	s = session.New(todoPath, archivePath)
	t.Cleanup(s.Close)
	return s, todoPath, archivePath
}

func TestNewLoadsFile(t *testing.T) {
	s, _, _ := newSessionDir(t, "(A) first\nsecond\n", false)

	if s.List().Len() != 2 {
		t.Fatalf("len = %d", s.List().Len())
	}
	if s.View.Len() != 2 {
		t.Fatalf("view len = %d", s.View.Len())
	}
}

func TestNewMissingFileStartsEmpty(t *testing.T) {
	s := session.New(filepath.Join(t.TempDir(), "absent.txt"), "")
	defer s.Close()

	if s.List().Len() != 0 {
		t.Errorf("len = %d, want 0", s.List().Len())
	}
}

func TestCommandSurface(t *testing.T) {
	s, _, _ := newSessionDir(t, "existing\n", false)

	id, err := s.Add("(B) new task +work", -1)
	if err != nil {
		t.Fatal(err)
	}
	if row, ok := s.View.RowOf(id); !ok || row != 1 {
		t.Errorf("new task at row %d", row)
	}

	if err := s.SetPriority(id, 'A'); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleComplete(id); err != nil {
		t.Fatal(err)
	}
	tk, _ := s.List().Get(id)
	if !tk.Completed || tk.Priority != 0 {
		t.Errorf("task = %+v", tk)
	}

	if err := s.Move(id, 0); err != nil {
		t.Fatal(err)
	}
	if s.List().IndexOf(id) != 0 {
		t.Error("move failed")
	}

	// Three undos roll back move, toggle, and priority.
	for i := 0; i < 3; i++ {
		if !s.Undo() {
			t.Fatalf("undo %d failed", i)
		}
	}
	tk, _ = s.List().Get(id)
	if tk.String() != "(B) new task +work" {
		t.Errorf("after undo: %q", tk.String())
	}

	if err := s.Delete(id); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(id); !errors.Is(err, tasklist.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestArchiveRequiresConfiguredArchive(t *testing.T) {
	s, _, _ := newSessionDir(t, "x done\n", false)
	if _, err := s.Archive(); !errors.Is(err, tasklist.ErrNoArchive) {
		t.Errorf("err = %v, want ErrNoArchive", err)
	}
}

func TestSaveWritesBothFiles(t *testing.T) {
	s, todoPath, archivePath := newSessionDir(t, "x done\nopen\n", true)

	count, err := s.Archive()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("archived %d", count)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	lines, err := tasklist.ReadLines(todoPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lines, []string{"open"}) {
		t.Errorf("todo = %v", lines)
	}
	archived, err := tasklist.ReadLines(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(archived, []string{"x done"}) {
		t.Errorf("archive = %v", archived)
	}
}

func TestExternalReloadDiscardsEditsAndHistory(t *testing.T) {
	s, todoPath, _ := newSessionDir(t, "from disk\n", false)

	if _, err := s.Add("unsaved edit", -1); err != nil {
		t.Fatal(err)
	}

	// External writer replaces the file, then the watch signal arrives.
	if err := os.WriteFile(todoPath, []byte("external one\nexternal two\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s.Coord.NotifyChanged()
	res := s.Drain()

	if !res.Reloaded || res.ReloadErr != nil {
		t.Fatalf("result = %+v", res)
	}
	if got := s.List().Serialize(); !reflect.DeepEqual(got, []string{"external one", "external two"}) {
		t.Errorf("list = %v", got)
	}
	if s.View.Len() != 2 {
		t.Errorf("view len = %d", s.View.Len())
	}
	if s.Undo() {
		t.Error("history must be invalidated by a foreign reload")
	}
}

func TestWatcherTriggersReload(t *testing.T) {
	s, todoPath, _ := newSessionDir(t, "initial\n", false)

	if err := s.StartWatching(); err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(todoPath, []byte("rewritten\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-s.Coord.Wake():
	case <-time.After(2 * time.Second):
		t.Fatal("no wake signal from watcher")
	}
	res := s.Drain()
	if !res.Reloaded {
		t.Fatalf("result = %+v", res)
	}
	if got := s.List().Serialize(); !reflect.DeepEqual(got, []string{"rewritten"}) {
		t.Errorf("list = %v", got)
	}
}

func TestOwnSaveDoesNotEchoAsReload(t *testing.T) {
	s, _, _ := newSessionDir(t, "task\n", false)

	if err := s.StartWatching(); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-s.Coord.Wake():
		t.Error("our own save echoed back as an external change")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestAutosavePostsSaveSignals(t *testing.T) {
	s, todoPath, _ := newSessionDir(t, "", false)

	if _, err := s.Add("autosaved task", -1); err != nil {
		t.Fatal(err)
	}
	s.StartAutosave(20 * time.Millisecond)

	select {
	case <-s.Coord.Wake():
	case <-time.After(2 * time.Second):
		t.Fatal("no autosave signal")
	}
	res := s.Drain()
	if !res.Saved || res.SaveErr != nil {
		t.Fatalf("result = %+v", res)
	}

	lines, err := tasklist.ReadLines(todoPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lines, []string{"autosaved task"}) {
		t.Errorf("file = %v", lines)
	}
}
