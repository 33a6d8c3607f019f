package colorscheme

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsComplete(t *testing.T) {
	s := Default()
	fields := map[string]string{
		"header":    s.Header,
		"status":    s.Status,
		"selected":  s.Selected,
		"completed": s.Completed,
		"project":   s.Project,
		"context":   s.Context,
		"metadata":  s.Metadata,
	}
	for name, val := range fields {
		if val == "" {
			t.Errorf("default scheme leaves %s unset", name)
		}
	}
}

func TestLoadDefaultName(t *testing.T) {
	for _, name := range []string{"", "default"} {
		s, err := Load(name, t.TempDir())
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if s != Default() {
			t.Errorf("Load(%q) differs from Default()", name)
		}
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	s, err := Load("nonexistent", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if s != Default() {
		t.Error("missing scheme file should fall back to default")
	}
}

func TestLoadCustomSchemeInheritsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "selected = \"#ff0000\"\nproject = \"42\"\n"
	if err := os.WriteFile(filepath.Join(dir, "mine.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load("mine", dir)
	if err != nil {
		t.Fatal(err)
	}
	if s.Selected != "#ff0000" || s.Project != "42" {
		t.Errorf("custom keys not applied: %+v", s)
	}
	if s.Header != Default().Header {
		t.Error("unset keys should inherit defaults")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.toml"), []byte("selected = [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("broken", dir); err == nil {
		t.Error("expected error for unparseable scheme file")
	}
}
