// Package endpoint infers a dev server's reachable address from its own
// startup log output. No network probing is involved; discovery is
// best-effort enrichment and never a precondition for a successful start.
package endpoint

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	urlPattern = regexp.MustCompile(`https?://[^\s"'<>\)\]]+`)
	// A decimal number labeled as a port, e.g. "Listening on port 8080".
	portPattern = regexp.MustCompile(`(?i)\bport\b\D{0,10}?(\d{2,5})\b`)
)

// Discover scans log text for the first server-bound address. URLs with a
// loopback host win over anything else; among loopback matches the first
// occurrence in the text is chosen. When no URL is present, a "port"-labeled
// number synthesizes http://localhost:<port>. The second return value is
// false when nothing was found.
func Discover(logText string) (string, bool) {
	matches := urlPattern.FindAllString(logText, -1)
	for _, m := range matches {
		m = trimTrailing(m)
		if isLoopback(m) {
			return m, true
		}
	}
	if len(matches) > 0 {
		return trimTrailing(matches[0]), true
	}
	if m := portPattern.FindStringSubmatch(logText); m != nil {
		return "http://localhost:" + m[1], true
	}
	return "", false
}

func isLoopback(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "0.0.0.0":
		return true
	}
	return false
}

// trimTrailing drops punctuation that log lines commonly glue onto a URL.
func trimTrailing(u string) string {
	return strings.TrimRight(u, ".,;:!")
}
