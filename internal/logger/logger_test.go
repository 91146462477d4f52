package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Errorf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devserv.log")
	log := New(Config{Level: "debug", File: path})
	log.Info("hello", "k", "v")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "hello") || !strings.Contains(out, "k=v") {
		t.Fatalf("log output = %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	file := filepath.Join(t.TempDir(), "devserv.log")
	log := New(Config{Level: "warn", File: file})
	log.Info("quiet")
	log.Warn("loud")

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "quiet") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestColorHandlerColorsLevel(t *testing.T) {
	log := New(Config{})
	if log == nil {
		t.Fatal("nil logger")
	}
	// handler selection only; output goes to stderr
	if _, ok := log.Handler().(*colorTextHandler); !ok {
		t.Fatalf("handler = %T, want *colorTextHandler", log.Handler())
	}
	plain := New(Config{NoColor: true})
	if _, ok := plain.Handler().(*colorTextHandler); ok {
		t.Fatal("NoColor should not use the color handler")
	}
}
