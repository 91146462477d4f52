package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsEmptyState(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "registry.json"))
	st := s.Load()
	if st.ManagedProcesses == nil {
		t.Fatal("expected non-nil map")
	}
	if len(st.ManagedProcesses) != 0 {
		t.Fatalf("expected empty state, got %d entries", len(st.ManagedProcesses))
	}
}

func TestLoadCorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	st := NewStore(path).Load()
	if len(st.ManagedProcesses) != 0 {
		t.Fatalf("corrupt document must load as empty, got %d entries", len(st.ManagedProcesses))
	}
}

func TestPersistAndLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	s := NewStore(path)
	st := NewState()
	st.ManagedProcesses["web"] = ProcessConfig{
		Name:      "web",
		Script:    "npm",
		Args:      []string{"run", "dev"},
		Env:       map[string]string{"PORT": "3000"},
		Instances: 1,
		LogOffset: 42,
	}
	if err := s.Persist(st); err != nil {
		t.Fatalf("persist: %v", err)
	}
	got := s.Load()
	cfg, ok := got.ManagedProcesses["web"]
	if !ok {
		t.Fatal("entry missing after roundtrip")
	}
	if cfg.Script != "npm" || cfg.LogOffset != 42 || cfg.Env["PORT"] != "3000" {
		t.Fatalf("unexpected config after roundtrip: %+v", cfg)
	}
	if got.LastSynced == "" {
		t.Fatal("lastSynced not stamped")
	}
}

func TestPersistRewritesWholeDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	s := NewStore(path)
	st := NewState()
	st.ManagedProcesses["a"] = ProcessConfig{Name: "a", Script: "a.sh"}
	st.ManagedProcesses["b"] = ProcessConfig{Name: "b", Script: "b.sh"}
	if err := s.Persist(st); err != nil {
		t.Fatal(err)
	}
	delete(st.ManagedProcesses, "a")
	if err := s.Persist(st); err != nil {
		t.Fatal(err)
	}
	got := s.Load()
	if _, ok := got.ManagedProcesses["a"]; ok {
		t.Fatal("deleted entry survived full rewrite")
	}
	if _, ok := got.ManagedProcesses["b"]; !ok {
		t.Fatal("kept entry lost")
	}
}

func TestPersistedDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	s := NewStore(path)
	st := NewState()
	st.ManagedProcesses["web"] = ProcessConfig{Name: "web", Script: "server.js"}
	if err := s.Persist(st); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if _, ok := doc["managedProcesses"]; !ok {
		t.Fatal("document missing managedProcesses key")
	}
	if _, ok := doc["lastSynced"]; !ok {
		t.Fatal("document missing lastSynced key")
	}
}

func TestPersistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "registry.json"))
	if err := s.Persist(NewState()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "registry.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
