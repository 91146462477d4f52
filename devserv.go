// Package devserv is a control-plane shim over an external PM2-compatible
// process supervisor. It keeps a durable registry of dev-server
// configurations, reconciles it against the supervisor's live state,
// tracks log freshness across restarts, and infers reachable endpoints
// from startup log output.
package devserv

import (
	"context"
	"net/http"

	cfg "github.com/loykin/devserv/internal/config"
	"github.com/loykin/devserv/internal/history"
	"github.com/loykin/devserv/internal/history/factory"
	"github.com/loykin/devserv/internal/manager"
	"github.com/loykin/devserv/internal/metrics"
	"github.com/loykin/devserv/internal/registry"
	iapi "github.com/loykin/devserv/internal/server"
	"github.com/loykin/devserv/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type ProcessConfig = registry.ProcessConfig

type Update = registry.Update

type StartResult = manager.StartResult

type ProcessStatus = manager.ProcessStatus

type Stream = supervisor.Stream

const (
	StreamCombined = supervisor.StreamCombined
	StreamOut      = supervisor.StreamOut
	StreamErr      = supervisor.StreamErr
)

var ErrNotRegistered = manager.ErrNotRegistered

type Config = cfg.Config

// LoadConfig reads the controller configuration from a TOML file; an empty
// path yields the defaults.
func LoadConfig(path string) (Config, error) { return cfg.Load(path) }

type HistorySink = history.Sink

// NewHistorySink builds a lifecycle event sink from a DSN (sqlite path,
// postgres:// or clickhouse:// URL).
func NewHistorySink(dsn string) (HistorySink, error) { return factory.NewSinkFromDSN(dsn) }

// Manager is a thin facade over internal/manager.Manager.
// It provides a stable public API for embedding.
type Manager struct{ inner *manager.Manager }

// New builds a Manager with the default configuration.
func New() *Manager { return FromConfig(cfg.Default()) }

// FromConfig wires a Manager from a controller configuration.
func FromConfig(c Config) *Manager {
	m := manager.New(registry.NewStore(c.Registry.Path), supervisor.New(c.Supervisor.Bin))
	m.OffsetWait = c.Timing.OffsetWait
	m.BootWait = c.Timing.BootWait
	m.TailLines = c.Timing.TailLines
	return &Manager{inner: m}
}

func (m *Manager) SetHistorySinks(sinks ...HistorySink) { m.inner.SetHistorySinks(sinks...) }

func (m *Manager) Register(ctx context.Context, c ProcessConfig, start bool) (ProcessConfig, *StartResult, error) {
	return m.inner.Register(ctx, c, start)
}

func (m *Manager) Update(ctx context.Context, name string, u Update, apply bool) (ProcessConfig, error) {
	return m.inner.Update(ctx, name, u, apply)
}

func (m *Manager) Start(ctx context.Context, name string) (StartResult, error) {
	return m.inner.Start(ctx, name)
}

func (m *Manager) Stop(ctx context.Context, name string) error { return m.inner.Stop(ctx, name) }

func (m *Manager) Restart(ctx context.Context, name string) error { return m.inner.Restart(ctx, name) }

func (m *Manager) Delete(ctx context.Context, name string, removeFromSupervisor bool) error {
	return m.inner.Delete(ctx, name, removeFromSupervisor)
}

func (m *Manager) Describe(ctx context.Context, name string) (string, error) {
	return m.inner.Describe(ctx, name)
}

func (m *Manager) Status(ctx context.Context) ([]ProcessStatus, error) { return m.inner.Status(ctx) }

func (m *Manager) Logs(ctx context.Context, name string, lines int, stream Stream, freshOnly bool) (string, error) {
	return m.inner.Logs(ctx, name, lines, stream, freshOnly)
}

// HTTPHandler returns the embeddable API handler for this manager.
func (m *Manager) HTTPHandler(basePath string) http.Handler {
	return iapi.NewRouter(m.inner, basePath).Handler()
}

// NewServer starts a standalone API server for this manager.
func (m *Manager) NewServer(addr, basePath string) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, m.inner)
}

// RegisterMetrics registers the prometheus collectors with r.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// MetricsHandler serves the default prometheus gatherer.
func MetricsHandler() http.Handler { return metrics.Handler() }
