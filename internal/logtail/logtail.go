// Package logtail tracks how much of a process's stdout log has already
// been consumed, so callers can read only output produced since the most
// recent restart.
package logtail

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// MaxFreshReadBytes caps a single fresh-only read.
const MaxFreshReadBytes = 1 << 20 // 1 MiB

// Size returns the current size of the log file in bytes, or 0 when the
// file does not exist yet. Called right after a start/restart to capture
// the freshness offset.
func Size(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// ReadFresh returns the text appended to the log file past offset, capped
// at MaxFreshReadBytes, together with the new offset to store. When nothing
// new was written the text is empty and the offset is unchanged. An open
// failure is returned to the caller so it can fall back to a tail-based
// read.
func ReadFresh(path string, offset int64) (string, int64, error) {
	if offset < 0 {
		offset = 0
	}
	f, err := os.Open(path) // #nosec G304 -- path comes from the supervisor's own descriptor
	if err != nil {
		return "", offset, fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = f.Close() }()
	fi, err := f.Stat()
	if err != nil {
		return "", offset, fmt.Errorf("stat log file: %w", err)
	}
	remain := fi.Size() - offset
	if remain <= 0 {
		return "", offset, nil
	}
	if remain > MaxFreshReadBytes {
		remain = MaxFreshReadBytes
	}
	buf := make([]byte, remain)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return "", offset, fmt.Errorf("read log file: %w", err)
	}
	return string(buf[:n]), offset + int64(n), nil
}

var (
	// "/home/u/.pm2/logs/web-out.log last 100 lines:" style banners.
	bannerLine = regexp.MustCompile(`^\S*\.log\s+last\s+\d+\s+lines:?\s*$`)
	// "0|web  | " style per-line prefixes.
	linePrefix = regexp.MustCompile(`^\d+\|[^|]*\|\s?`)
	// "[TAILING] Tailing last 100 lines ..." streaming-mode markers.
	streamMarker = regexp.MustCompile(`^\[TAILING\]`)
)

// Clean strips the supervisor's own formatting from tailed log output:
// log-path banner lines, per-line "<index>|<name>| " prefixes, and
// streaming-mode marker lines. The result is trimmed of surrounding
// whitespace.
func Clean(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if bannerLine.MatchString(trimmed) || streamMarker.MatchString(trimmed) {
			continue
		}
		out = append(out, linePrefix.ReplaceAllString(line, ""))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
