package factory

import (
	"path/filepath"
	"testing"
)

func TestSQLiteDSNWithAndWithoutScheme(t *testing.T) {
	dir := t.TempDir()
	for _, dsn := range []string{
		filepath.Join(dir, "a.db"),
		"sqlite://" + filepath.Join(dir, "b.db"),
	} {
		sink, err := NewSinkFromDSN(dsn)
		if err != nil {
			t.Fatalf("dsn %q: %v", dsn, err)
		}
		_ = sink.Close()
	}
}

func TestEmptyDSNFails(t *testing.T) {
	if _, err := NewSinkFromDSN("  "); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnsupportedSchemeFails(t *testing.T) {
	if _, err := NewSinkFromDSN("redis://localhost:6379"); err == nil {
		t.Fatal("expected error")
	}
}
