package backfill

import (
	"os"
	"path/filepath"
	"testing"
)

func TestState_NewAndSave(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")

	s, err := LoadState(statePath)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if s.StartedAt.IsZero() {
		t.Error("new state should have a start time")
	}
	s.MarkProcessed("a.html")
	s.MarkProcessed("b.html")
	s.Captured = 2
	s.Deduplicated = 1

	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := LoadState(statePath)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !reloaded.IsProcessed("b.html") {
		t.Error("b.html should survive a reload")
	}
	if reloaded.Captured != 2 || reloaded.Deduplicated != 1 {
		t.Errorf("counters not persisted: %+v", reloaded)
	}
}

func TestState_CorruptFile(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	os.WriteFile(statePath, []byte("{not json"), 0o644)

	if _, err := LoadState(statePath); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestState_IsProcessed(t *testing.T) {
	s := &State{}

	if s.IsProcessed("a.html") {
		t.Error("a.html should not be processed yet")
	}

	s.MarkProcessed("a.html")

	if !s.IsProcessed("a.html") {
		t.Error("a.html should be processed")
	}
	if s.IsProcessed("b.html") {
		t.Error("b.html should not be processed")
	}
}

func TestState_AddError(t *testing.T) {
	s := &State{}
	s.AddError("something went wrong")
	s.AddError("another error")

	if len(s.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(s.Errors))
	}
	if s.Errors[0] != "something went wrong" {
		t.Errorf("error[0] = %q", s.Errors[0])
	}
}

func TestState_SaveCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "nested", "dir", "state.json")

	s := &State{path: statePath}
	if err := s.Save(); err != nil {
		t.Fatalf("Save with nested dir failed: %v", err)
	}
	if _, err := os.Stat(statePath); err != nil {
		t.Fatalf("state file not created in nested dir: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	got := expandHome("~/test/path")
	want := filepath.Join(home, "test/path")
	if got != want {
		t.Errorf("expandHome(~/test/path) = %q, want %q", got, want)
	}

	// Non-tilde paths should pass through.
	got = expandHome("/absolute/path")
	if got != "/absolute/path" {
		t.Errorf("expandHome(/absolute/path) = %q", got)
	}
}
