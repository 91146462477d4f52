package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/devserv/internal/config"
	"github.com/loykin/devserv/internal/history/factory"
	"github.com/loykin/devserv/internal/logger"
	"github.com/loykin/devserv/internal/manager"
	"github.com/loykin/devserv/internal/metrics"
	"github.com/loykin/devserv/internal/registry"
	"github.com/loykin/devserv/internal/server"
	"github.com/loykin/devserv/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
)

// command binds the handlers to the resolved global flags.
type command struct {
	gf *GlobalFlags
}

// setup loads the controller config, applies flag overrides, and wires a
// manager. The returned cleanup closes any history sink.
func (c *command) setup() (*manager.Manager, config.Config, func(), error) {
	cfg, err := config.Load(c.gf.ConfigPath)
	if err != nil {
		return nil, cfg, nil, err
	}
	if c.gf.RegistryPath != "" {
		cfg.Registry.Path = c.gf.RegistryPath
	}
	if c.gf.SupervisorBin != "" {
		cfg.Supervisor.Bin = c.gf.SupervisorBin
	}
	log := logger.New(cfg.Log)

	sup := supervisor.New(cfg.Supervisor.Bin)
	sup.SetLogger(log)
	m := manager.New(registry.NewStore(cfg.Registry.Path), sup)
	m.SetLogger(log)
	m.OffsetWait = cfg.Timing.OffsetWait
	m.BootWait = cfg.Timing.BootWait
	m.TailLines = cfg.Timing.TailLines

	cleanup := func() {}
	if cfg.History.DSN != "" {
		sink, err := factory.NewSinkFromDSN(cfg.History.DSN)
		if err != nil {
			log.Warn("history sink disabled", "dsn", cfg.History.DSN, "err", err)
		} else {
			m.SetHistorySinks(sink)
			cleanup = func() { _ = sink.Close() }
		}
	}
	return m, cfg, cleanup, nil
}

func (c *command) Register(ctx context.Context, f RegisterFlags) error {
	m, _, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	cfg := registry.ProcessConfig{
		Name:        f.Name,
		Script:      f.Script,
		Args:        f.Args,
		Interpreter: f.Interpreter,
		Cwd:         f.Cwd,
		Env:         parseEnv(f.Env),
		Instances:   f.Instances,
		Watch:       f.Watch,
		Autorestart: f.Autorestart,
	}
	stored, res, err := m.Register(ctx, cfg, !f.NoStart)
	if err != nil {
		return err
	}
	printJSON(map[string]any{"config": stored, "start": res})
	return nil
}

func (c *command) Update(ctx context.Context, cmd *cobra.Command, f UpdateFlags) error {
	m, _, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	// Only flags the user actually set become part of the patch.
	patch := registry.Update{}
	flags := cmd.Flags()
	if flags.Changed("script") {
		patch.Script = &f.Script
	}
	if flags.Changed("arg") {
		patch.Args = f.Args
	}
	if flags.Changed("interpreter") {
		patch.Interpreter = &f.Interpreter
	}
	if flags.Changed("cwd") {
		patch.Cwd = &f.Cwd
	}
	if flags.Changed("env") {
		patch.Env = parseEnv(f.Env)
	}
	if flags.Changed("instances") {
		patch.Instances = &f.Instances
	}
	if flags.Changed("watch") {
		patch.Watch = &f.Watch
	}
	if flags.Changed("autorestart") {
		patch.Autorestart = &f.Autorestart
	}
	cfg, err := m.Update(ctx, f.Name, patch, f.Apply)
	if err != nil {
		return err
	}
	printJSON(cfg)
	return nil
}

func (c *command) Start(ctx context.Context, name string) error {
	m, _, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	res, err := m.Start(ctx, name)
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

func (c *command) Stop(ctx context.Context, name string) error {
	m, _, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	if err := m.Stop(ctx, name); err != nil {
		return err
	}
	fmt.Printf("stopped %s\n", name)
	return nil
}

func (c *command) Restart(ctx context.Context, name string) error {
	m, _, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	if err := m.Restart(ctx, name); err != nil {
		return err
	}
	fmt.Printf("restarted %s\n", name)
	return nil
}

func (c *command) Delete(ctx context.Context, f DeleteFlags) error {
	m, _, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	if err := m.Delete(ctx, f.Name, !f.KeepSupervisor); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", f.Name)
	return nil
}

func (c *command) Describe(ctx context.Context, name string) error {
	m, _, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	text, err := m.Describe(ctx, name)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func (c *command) Status(ctx context.Context) error {
	m, _, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	rows, err := m.Status(ctx)
	if err != nil {
		return err
	}
	printJSON(rows)
	return nil
}

func (c *command) Logs(ctx context.Context, f LogsFlags) error {
	m, _, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	text, err := m.Logs(ctx, f.Name, f.Lines, supervisor.ParseStream(f.Stream), f.Fresh)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func (c *command) Serve(ctx context.Context, f ServeFlags) error {
	m, cfg, cleanup, err := c.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	if f.Listen != "" {
		cfg.Server.Listen = f.Listen
	}
	if f.BasePath != "" {
		cfg.Server.BasePath = f.BasePath
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", server.NewRouter(m, cfg.Server.BasePath).Handler())
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	fmt.Printf("devserv API listening on %s%s\n", cfg.Server.Listen, cfg.Server.BasePath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	case <-ctx.Done():
	}
	return srv.Close()
}

// parseEnv turns KEY=VALUE pairs into a map, skipping malformed entries.
func parseEnv(kvs []string) map[string]string {
	if len(kvs) == 0 {
		return nil
	}
	env := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
