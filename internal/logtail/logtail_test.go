package logtail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
}

func TestSizeMissingFileIsZero(t *testing.T) {
	if got := Size(filepath.Join(t.TempDir(), "nope.log")); got != 0 {
		t.Fatalf("size = %d, want 0", got)
	}
}

func TestReadFreshIncremental(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	writeLog(t, path, "old line\n")
	offset := Size(path)

	appendLog(t, path, "fresh one\n")
	text, newOffset, err := ReadFresh(path, offset)
	if err != nil {
		t.Fatal(err)
	}
	if text != "fresh one\n" {
		t.Fatalf("text = %q", text)
	}
	if newOffset != offset+int64(len("fresh one\n")) {
		t.Fatalf("offset = %d", newOffset)
	}

	// nothing new since
	text, again, err := ReadFresh(path, newOffset)
	if err != nil {
		t.Fatal(err)
	}
	if text != "" || again != newOffset {
		t.Fatalf("expected no new logs, got %q offset %d", text, again)
	}

	// two consecutive reads never overlap
	appendLog(t, path, "fresh two\n")
	text, _, err = ReadFresh(path, newOffset)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "fresh one") || strings.Contains(text, "old line") {
		t.Fatalf("read repeated earlier content: %q", text)
	}
}

func TestReadFreshCapsAtMaxBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	big := strings.Repeat("x", MaxFreshReadBytes+4096)
	writeLog(t, path, big)
	text, newOffset, err := ReadFresh(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(text) != MaxFreshReadBytes {
		t.Fatalf("read %d bytes, want cap %d", len(text), MaxFreshReadBytes)
	}
	if newOffset != MaxFreshReadBytes {
		t.Fatalf("offset = %d", newOffset)
	}
}

func TestReadFreshMissingFileReturnsError(t *testing.T) {
	_, offset, err := ReadFresh(filepath.Join(t.TempDir(), "gone.log"), 10)
	if err == nil {
		t.Fatal("expected error so caller can fall back to tail")
	}
	if offset != 10 {
		t.Fatalf("offset must be unchanged, got %d", offset)
	}
}

func TestReadFreshOffsetPastEndReportsNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	writeLog(t, path, "short\n")
	text, newOffset, err := ReadFresh(path, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if text != "" || newOffset != 1000 {
		t.Fatalf("truncated file must read as no new logs, got %q %d", text, newOffset)
	}
}

func TestCleanStripsSupervisorFormatting(t *testing.T) {
	raw := strings.Join([]string{
		"/home/u/.pm2/logs/web-out.log last 100 lines:",
		"0|web  | server listening",
		"0|web  | ready",
		"[TAILING] Tailing last 100 lines for [web] process",
		"  plain line  ",
		"",
	}, "\n")
	got := Clean(raw)
	want := "server listening\nready\n  plain line"
	if got != want {
		t.Fatalf("Clean:\n got %q\nwant %q", got, want)
	}
}

func TestCleanPlainTextUntouched(t *testing.T) {
	if got := Clean("hello\nworld\n"); got != "hello\nworld" {
		t.Fatalf("got %q", got)
	}
}
