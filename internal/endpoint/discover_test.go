package endpoint

import "testing"

func TestDiscoverPrefersLoopbackURL(t *testing.T) {
	logText := "  Local:   http://localhost:3002\n  Network: http://192.168.1.5:3002\n"
	got, ok := Discover(logText)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "http://localhost:3002" {
		t.Fatalf("got %q", got)
	}
}

func TestDiscoverLoopbackWinsRegardlessOfOrder(t *testing.T) {
	logText := "Network: http://192.168.1.5:3002\nLocal: http://127.0.0.1:3002\n"
	got, ok := Discover(logText)
	if !ok || got != "http://127.0.0.1:3002" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestDiscoverFirstLoopbackOfSeveral(t *testing.T) {
	logText := "http://localhost:3000 then http://localhost:4000"
	got, _ := Discover(logText)
	if got != "http://localhost:3000" {
		t.Fatalf("got %q", got)
	}
}

func TestDiscoverFallsBackToAnyURL(t *testing.T) {
	logText := "deployed at https://example.com/app"
	got, ok := Discover(logText)
	if !ok || got != "https://example.com/app" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestDiscoverPortToken(t *testing.T) {
	got, ok := Discover("Listening on port 8080\n")
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "http://localhost:8080" {
		t.Fatalf("got %q", got)
	}
}

func TestDiscoverPortTokenCaseInsensitive(t *testing.T) {
	got, ok := Discover("Server started. PORT: 5173")
	if !ok || got != "http://localhost:5173" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestDiscoverNothing(t *testing.T) {
	if got, ok := Discover("compiling...\ndone in 2.3s\n"); ok {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestDiscoverTrimsTrailingPunctuation(t *testing.T) {
	got, ok := Discover("ready at http://0.0.0.0:9000.")
	if !ok || got != "http://0.0.0.0:9000" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}
