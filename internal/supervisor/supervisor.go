// Package supervisor shells out to a PM2-compatible process supervisor.
// Commands are always built as explicit argv lists, never interpolated
// shell strings, so config values with special characters stay inert.
package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// DefaultBin is the supervisor binary consulted when none is configured.
const DefaultBin = "pm2"

// Stream selects which output stream a log read covers.
type Stream int

const (
	StreamCombined Stream = iota
	StreamOut
	StreamErr
)

// ParseStream maps the textual stream selector used by the CLI and HTTP
// surfaces. Unknown values fall back to the combined stream.
func ParseStream(s string) Stream {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "out", "stdout":
		return StreamOut
	case "err", "stderr":
		return StreamErr
	}
	return StreamCombined
}

// StartSpec carries the fields the supervisor needs to create a process.
type StartSpec struct {
	Name        string
	Script      string
	Args        []string
	Interpreter string
	Cwd         string
	Env         map[string]string
	Instances   int
	Watch       bool
	Autorestart bool
}

// runner abstracts execution of the supervisor binary so tests can observe
// the exact argv without spawning anything.
type runner interface {
	run(ctx context.Context, extraEnv []string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	bin string
}

func (r execRunner) run(ctx context.Context, extraEnv []string, args ...string) ([]byte, []byte, error) {
	// ok: argv built from struct fields, no shell involved
	// #nosec G204
	cmd := exec.CommandContext(ctx, r.bin, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return out.Bytes(), errBuf.Bytes(), err
}

// Client is the adapter over the supervisor CLI.
type Client struct {
	bin string
	r   runner
	log *slog.Logger
}

func New(bin string) *Client {
	if bin == "" {
		bin = DefaultBin
	}
	return &Client{bin: bin, r: execRunner{bin: bin}, log: slog.Default()}
}

func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.log = l
	}
}

// List returns all live process descriptors. Supervisor unavailability or
// unparsable output degrades to an empty list; absence of the supervisor is
// a normal environment state, not an error.
func (c *Client) List(ctx context.Context) []Descriptor {
	out, stderr, err := c.r.run(ctx, nil, "jlist")
	if err != nil {
		c.log.Debug("supervisor unavailable", "err", err, "stderr", strings.TrimSpace(string(stderr)))
		return nil
	}
	descs, err := parseJList(out)
	if err != nil {
		c.log.Debug("unparsable jlist output", "err", err)
		return nil
	}
	return descs
}

// Start creates a new supervised process from spec. Auto-restart is disabled
// unless spec enables it. Env vars travel through the invocation's
// environment, not as flags.
func (c *Client) Start(ctx context.Context, spec StartSpec) error {
	args := []string{"start", spec.Script, "--name", spec.Name}
	if spec.Interpreter != "" {
		args = append(args, "--interpreter", spec.Interpreter)
	}
	if spec.Cwd != "" {
		args = append(args, "--cwd", spec.Cwd)
	}
	if spec.Instances > 1 {
		args = append(args, "-i", strconv.Itoa(spec.Instances))
	}
	if spec.Watch {
		args = append(args, "--watch")
	} else {
		args = append(args, "--no-watch")
	}
	if !spec.Autorestart {
		args = append(args, "--no-autorestart")
	}
	if len(spec.Args) > 0 {
		args = append(args, "--")
		args = append(args, spec.Args...)
	}
	_, stderr, err := c.r.run(ctx, envList(spec.Env), args...)
	if err != nil {
		return fmt.Errorf("supervisor start %s: %w: %s", spec.Name, err, strings.TrimSpace(string(stderr)))
	}
	return nil
}

// Stop stops the named process. Stopping an unknown name is a no-op.
func (c *Client) Stop(ctx context.Context, name string) Outcome {
	return c.lifecycle(ctx, "stop", name)
}

// Restart restarts the named process in place, keeping its supervisor entry.
func (c *Client) Restart(ctx context.Context, name string) Outcome {
	return c.lifecycle(ctx, "restart", name)
}

// Delete removes the named process from the supervisor entirely.
func (c *Client) Delete(ctx context.Context, name string) Outcome {
	return c.lifecycle(ctx, "delete", name)
}

// Flush clears the supervisor's buffered output for the named process.
func (c *Client) Flush(ctx context.Context, name string) Outcome {
	return c.lifecycle(ctx, "flush", name)
}

func (c *Client) lifecycle(ctx context.Context, verb, name string) Outcome {
	_, stderr, err := c.r.run(ctx, nil, verb, name)
	if err == nil {
		return OutcomeSucceeded
	}
	if isNotFound(stderr) {
		c.log.Debug("supervisor has no such process", "verb", verb, "name", name)
		return OutcomeNotFound
	}
	c.log.Debug("supervisor command failed", "verb", verb, "name", name, "err", err)
	return OutcomeUnavailable
}

// Describe returns the supervisor's raw diagnostic text for one process.
// An unknown name still yields the supervisor's own message rather than an
// error.
func (c *Client) Describe(ctx context.Context, name string) (string, error) {
	out, stderr, err := c.r.run(ctx, nil, "describe", name)
	if err != nil {
		if isNotFound(stderr) {
			return strings.TrimSpace(string(stderr)), nil
		}
		return "", fmt.Errorf("supervisor describe %s: %w", name, err)
	}
	return string(out), nil
}

// TailLogs returns the most recent lines from the chosen stream without
// entering streaming mode.
func (c *Client) TailLogs(ctx context.Context, name string, lines int, stream Stream) (string, error) {
	if lines <= 0 {
		lines = 100
	}
	args := []string{"logs", name, "--lines", strconv.Itoa(lines), "--nostream"}
	switch stream {
	case StreamOut:
		args = append(args, "--out")
	case StreamErr:
		args = append(args, "--err")
	}
	out, stderr, err := c.r.run(ctx, nil, args...)
	if err != nil {
		return "", fmt.Errorf("supervisor logs %s: %w: %s", name, err, strings.TrimSpace(string(stderr)))
	}
	return string(out), nil
}

func isNotFound(stderr []byte) bool {
	s := strings.ToLower(string(stderr))
	return strings.Contains(s, "not found") ||
		strings.Contains(s, "doesn't exist") ||
		strings.Contains(s, "does not exist")
}

// envList flattens an env map into KEY=VALUE pairs in key order so command
// construction is deterministic.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kvs := make([]string, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, k+"="+env[k])
	}
	return kvs
}
