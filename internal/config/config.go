package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/devserv/internal/logger"
	"github.com/loykin/devserv/internal/registry"
	"github.com/loykin/devserv/internal/supervisor"
)

// Config is the controller's own configuration, loaded from a TOML file.
// Everything has a working default; a missing config file is fine.
type Config struct {
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Log        logger.Config    `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
	History    HistoryConfig    `mapstructure:"history"`
	Timing     TimingConfig     `mapstructure:"timing"`
}

type SupervisorConfig struct {
	Bin string `mapstructure:"bin"` // supervisor binary, default "pm2"
}

type RegistryConfig struct {
	Path string `mapstructure:"path"` // registry document path
}

type ServerConfig struct {
	Listen   string `mapstructure:"listen"`    // HTTP listen address
	BasePath string `mapstructure:"base_path"` // API base path
}

type HistoryConfig struct {
	// DSN selects a lifecycle event sink: sqlite path, postgres:// or
	// clickhouse:// URL. Empty disables history.
	DSN string `mapstructure:"dsn"`
}

type TimingConfig struct {
	// OffsetWait is slept after start/restart before the log offset capture.
	OffsetWait time.Duration `mapstructure:"offset_wait"`
	// BootWait is slept before scanning logs for an endpoint.
	BootWait time.Duration `mapstructure:"boot_wait"`
	// TailLines is the default tail length for log reads.
	TailLines int `mapstructure:"tail_lines"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Supervisor: SupervisorConfig{Bin: supervisor.DefaultBin},
		Registry:   RegistryConfig{Path: registry.DefaultPath},
		Server:     ServerConfig{Listen: ":8080", BasePath: "/api"},
		Timing: TimingConfig{
			OffsetWait: time.Second,
			BootWait:   1500 * time.Millisecond,
			TailLines:  100,
		},
	}
}

// Load reads the TOML config at path and merges it over the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Supervisor.Bin == "" {
		c.Supervisor.Bin = supervisor.DefaultBin
	}
	if c.Registry.Path == "" {
		c.Registry.Path = registry.DefaultPath
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/api"
	}
	if c.Timing.OffsetWait <= 0 {
		c.Timing.OffsetWait = time.Second
	}
	if c.Timing.BootWait <= 0 {
		c.Timing.BootWait = 1500 * time.Millisecond
	}
	if c.Timing.TailLines <= 0 {
		c.Timing.TailLines = 100
	}
}
