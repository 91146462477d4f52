// Package manager composes the registry store, supervisor adapter, log
// freshness tracker, and endpoint discovery into the externally consumed
// operation set. Each operation loads the registry once at entry, mutates
// it locally, and persists once; a single logical caller at a time is
// assumed.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/loykin/devserv/internal/endpoint"
	"github.com/loykin/devserv/internal/history"
	"github.com/loykin/devserv/internal/logtail"
	"github.com/loykin/devserv/internal/metrics"
	"github.com/loykin/devserv/internal/registry"
	"github.com/loykin/devserv/internal/supervisor"
)

// ErrNotRegistered is returned by operations that require a registered name.
var ErrNotRegistered = errors.New("process not registered")

// Supervisor is the lifecycle surface the manager consumes. Satisfied by
// *supervisor.Client; tests substitute a fake.
type Supervisor interface {
	List(ctx context.Context) []supervisor.Descriptor
	Start(ctx context.Context, spec supervisor.StartSpec) error
	Stop(ctx context.Context, name string) supervisor.Outcome
	Restart(ctx context.Context, name string) supervisor.Outcome
	Delete(ctx context.Context, name string) supervisor.Outcome
	Flush(ctx context.Context, name string) supervisor.Outcome
	Describe(ctx context.Context, name string) (string, error)
	TailLogs(ctx context.Context, name string, lines int, stream supervisor.Stream) (string, error)
}

// Manager implements the registry facade.
type Manager struct {
	store *registry.Store
	sup   Supervisor
	sinks []history.Sink
	log   *slog.Logger

	// OffsetWait is slept after a start/restart before capturing the log
	// offset, giving the supervisor time to (re)create the log file.
	OffsetWait time.Duration
	// BootWait is slept before scanning logs for an endpoint.
	BootWait time.Duration
	// TailLines is the default line count for tail-based log reads.
	TailLines int
}

func New(store *registry.Store, sup Supervisor) *Manager {
	return &Manager{
		store:      store,
		sup:        sup,
		log:        slog.Default(),
		OffsetWait: time.Second,
		BootWait:   1500 * time.Millisecond,
		TailLines:  100,
	}
}

func (m *Manager) SetLogger(l *slog.Logger) {
	if l != nil {
		m.log = l
	}
}

// SetHistorySinks configures lifecycle event sinks. Passing none clears the
// list.
func (m *Manager) SetHistorySinks(sinks ...history.Sink) {
	m.sinks = append([]history.Sink(nil), sinks...)
}

// StartResult reports what a start operation did. URL is only set when
// endpoint discovery found an address; its absence does not make the start
// less successful.
type StartResult struct {
	Name   string `json:"name"`
	Action Action `json:"action"`
	URL    string `json:"url,omitempty"`
}

// ProcessStatus joins one registry entry with the supervisor's live view.
type ProcessStatus struct {
	Name   string `json:"name"`
	Script string `json:"script"`
	Cwd    string `json:"cwd,omitempty"`
	Status string `json:"status"`
	PID    int    `json:"pid,omitempty"`
	Memory uint64 `json:"memory,omitempty"`
}

// Register stores cfg, overwriting any prior entry under the same name, and
// optionally starts it immediately. The stored config is returned; when the
// immediate start ran, its result is returned as well.
func (m *Manager) Register(ctx context.Context, cfg registry.ProcessConfig, startImmediately bool) (registry.ProcessConfig, *StartResult, error) {
	if cfg.Name == "" {
		return cfg, nil, errors.New("process name is required")
	}
	cfg.Normalize()
	st := m.store.Load()
	st.ManagedProcesses[cfg.Name] = cfg
	if err := m.store.Persist(st); err != nil {
		metrics.IncOperation("register", "error")
		return cfg, nil, err
	}
	metrics.IncOperation("register", "ok")
	m.record(ctx, history.EventRegister, cfg.Name, "")
	if !startImmediately {
		return cfg, nil, nil
	}
	res, err := m.Start(ctx, cfg.Name)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, &res, nil
}

// Update merges patch over the registered config and persists. With
// applyImmediately the live process is deleted and recreated from the
// updated config; most fields (env, args, cwd) cannot change on a live
// process without recreation.
func (m *Manager) Update(ctx context.Context, name string, patch registry.Update, applyImmediately bool) (registry.ProcessConfig, error) {
	st := m.store.Load()
	cfg, ok := st.ManagedProcesses[name]
	if !ok {
		metrics.IncOperation("update", "error")
		return registry.ProcessConfig{}, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	cfg = cfg.Apply(patch)
	st.ManagedProcesses[name] = cfg
	if err := m.store.Persist(st); err != nil {
		metrics.IncOperation("update", "error")
		return registry.ProcessConfig{}, err
	}
	metrics.IncOperation("update", "ok")
	m.record(ctx, history.EventUpdate, name, "")
	if !applyImmediately {
		return cfg, nil
	}
	// Recreate from scratch so every updated field takes effect.
	m.sup.Delete(ctx, name)
	if err := m.sup.Start(ctx, startSpec(cfg)); err != nil {
		return cfg, err
	}
	if err := m.captureOffset(ctx, name); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Start enforces at-most-one live process for the registered name, captures
// the log freshness offset, and attempts endpoint discovery. Starting an
// unregistered name is an error and has no side effects.
func (m *Manager) Start(ctx context.Context, name string) (StartResult, error) {
	st := m.store.Load()
	cfg, ok := st.ManagedProcesses[name]
	if !ok {
		metrics.IncOperation("start", "error")
		return StartResult{}, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	action, err := m.ensureStarted(ctx, cfg)
	if err != nil {
		metrics.IncOperation("start", "error")
		return StartResult{}, err
	}
	metrics.IncOperation("start", "ok")
	metrics.IncStartAction(string(action))
	m.record(ctx, history.EventStart, name, string(action))

	if err := m.captureOffset(ctx, name); err != nil {
		return StartResult{}, err
	}

	res := StartResult{Name: name, Action: action}
	if url, ok := m.discoverEndpoint(ctx, name); ok {
		res.URL = url
		metrics.IncEndpointDiscovery("found")
	} else {
		metrics.IncEndpointDiscovery("none")
	}
	return res, nil
}

// Stop stops the named process, best-effort. It does not require
// registration and is idempotent: stopping an unknown or already-stopped
// process succeeds.
func (m *Manager) Stop(ctx context.Context, name string) error {
	out := m.sup.Stop(ctx, name)
	m.log.Debug("stop issued", "name", name, "outcome", out.String())
	metrics.IncOperation("stop", "ok")
	m.record(ctx, history.EventStop, name, out.String())
	return nil
}

// Restart flushes supervisor-side log buffers (best-effort), restarts the
// process, and re-captures the freshness offset. A restart always resets
// the offset to the size at restart time so no pre-restart lines leak into
// a later fresh-only read.
func (m *Manager) Restart(ctx context.Context, name string) error {
	if out := m.sup.Flush(ctx, name); out != supervisor.OutcomeSucceeded {
		m.log.Debug("log flush skipped", "name", name, "outcome", out.String())
	}
	out := m.sup.Restart(ctx, name)
	if out == supervisor.OutcomeUnavailable {
		metrics.IncOperation("restart", "error")
		return fmt.Errorf("supervisor restart %s: supervisor unavailable", name)
	}
	metrics.IncOperation("restart", "ok")
	m.record(ctx, history.EventRestart, name, out.String())
	return m.captureOffset(ctx, name)
}

// Delete removes the registry entry and, unless told otherwise, the live
// process. Deleting an unregistered or already-absent name is not an error.
func (m *Manager) Delete(ctx context.Context, name string, removeFromSupervisor bool) error {
	if removeFromSupervisor {
		out := m.sup.Delete(ctx, name)
		m.log.Debug("supervisor delete issued", "name", name, "outcome", out.String())
	}
	st := m.store.Load()
	if _, ok := st.ManagedProcesses[name]; ok {
		delete(st.ManagedProcesses, name)
		if err := m.store.Persist(st); err != nil {
			metrics.IncOperation("delete", "error")
			return err
		}
	}
	metrics.IncOperation("delete", "ok")
	m.record(ctx, history.EventDelete, name, "")
	return nil
}

// Describe passes through the supervisor's raw diagnostic text.
func (m *Manager) Describe(ctx context.Context, name string) (string, error) {
	return m.sup.Describe(ctx, name)
}

// Status joins the registry with the supervisor's live list by name. A
// registered entry with no live counterpart reports "stopped" and no memory
// figure. Live processes outside the registry are not reported; the
// registry defines membership.
func (m *Manager) Status(ctx context.Context) ([]ProcessStatus, error) {
	st := m.store.Load()
	live := make(map[string]supervisor.Descriptor)
	for _, d := range m.sup.List(ctx) {
		live[d.Name] = d
	}
	rows := make([]ProcessStatus, 0, len(st.ManagedProcesses))
	for name, cfg := range st.ManagedProcesses {
		row := ProcessStatus{Name: name, Script: cfg.Script, Cwd: cfg.Cwd, Status: supervisor.StatusStopped}
		if d, ok := live[name]; ok {
			row.Status = d.Status
			row.PID = d.PID
			row.Memory = d.Memory
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

// NoNewLogs is returned by fresh-only reads when nothing was appended since
// the stored offset.
const NoNewLogs = "no new logs"

// Logs reads process output. With freshOnly it serves only bytes appended
// since the stored offset, advancing the offset by what was read; if the
// log file cannot be opened it falls back to a tail-based read, which may
// repeat lines. Non-fresh reads are tail-based and post-processed to strip
// supervisor formatting.
func (m *Manager) Logs(ctx context.Context, name string, lines int, stream supervisor.Stream, freshOnly bool) (string, error) {
	if lines <= 0 {
		lines = m.TailLines
	}
	if freshOnly {
		if text, ok, err := m.readFresh(ctx, name); err != nil {
			return "", err
		} else if ok {
			return text, nil
		}
		// fall back to tail; best-effort, non-incremental
	}
	raw, err := m.sup.TailLogs(ctx, name, lines, stream)
	if err != nil {
		// Supervisor unavailability is a common environment state; degrade
		// to an empty read instead of failing.
		m.log.Debug("tail logs failed", "name", name, "err", err)
		return "", nil
	}
	return logtail.Clean(raw), nil
}

// readFresh attempts the incremental path. ok=false means the caller should
// fall back to a tail read; a non-nil error is a registry persistence
// failure, which must surface.
func (m *Manager) readFresh(ctx context.Context, name string) (string, bool, error) {
	st := m.store.Load()
	cfg, registered := st.ManagedProcesses[name]
	if !registered {
		return "", false, nil
	}
	path := m.outLogPath(ctx, name)
	if path == "" {
		return "", false, nil
	}
	text, newOffset, err := logtail.ReadFresh(path, cfg.LogOffset)
	if err != nil {
		m.log.Debug("fresh read fell back to tail", "name", name, "err", err)
		return "", false, nil
	}
	if newOffset != cfg.LogOffset {
		cfg.LogOffset = newOffset
		st.ManagedProcesses[name] = cfg
		if err := m.store.Persist(st); err != nil {
			return "", false, err
		}
	}
	if text == "" {
		return NoNewLogs, true, nil
	}
	metrics.AddFreshLogBytes(len(text))
	return text, true, nil
}

// captureOffset waits for the log file to settle and records its current
// size as the freshness offset. Missing log files record offset zero. The
// bounded wait is an accepted approximation; there is no readiness signal
// from the supervisor.
func (m *Manager) captureOffset(ctx context.Context, name string) error {
	sleep(ctx, m.OffsetWait)
	st := m.store.Load()
	cfg, ok := st.ManagedProcesses[name]
	if !ok {
		return nil
	}
	var size int64
	if path := m.outLogPath(ctx, name); path != "" {
		size = logtail.Size(path)
	}
	cfg.LogOffset = size
	st.ManagedProcesses[name] = cfg
	return m.store.Persist(st)
}

func (m *Manager) discoverEndpoint(ctx context.Context, name string) (string, bool) {
	sleep(ctx, m.BootWait)
	raw, err := m.sup.TailLogs(ctx, name, m.TailLines, supervisor.StreamCombined)
	if err != nil {
		return "", false
	}
	return endpoint.Discover(raw)
}

// outLogPath resolves the stdout log path from the live descriptor.
func (m *Manager) outLogPath(ctx context.Context, name string) string {
	for _, d := range m.sup.List(ctx) {
		if d.Name == name {
			return d.OutLogPath
		}
	}
	return ""
}

func (m *Manager) record(ctx context.Context, t history.EventType, name, detail string) {
	if len(m.sinks) == 0 {
		return
	}
	evt := history.Event{Type: t, OccurredAt: time.Now().UTC(), Name: name, Detail: detail}
	for _, s := range m.sinks {
		if err := s.Send(ctx, evt); err != nil {
			m.log.Debug("history sink send failed", "event", string(t), "err", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
