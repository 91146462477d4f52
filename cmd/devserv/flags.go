package main

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath    string // controller config file (TOML)
	RegistryPath  string // overrides [registry].path
	SupervisorBin string // overrides [supervisor].bin
}

// RegisterFlags holds flags for the register command.
type RegisterFlags struct {
	Name        string
	Script      string
	Args        []string
	Interpreter string
	Cwd         string
	Env         []string // KEY=VALUE pairs
	Instances   int
	Watch       bool
	Autorestart bool
	NoStart     bool
}

// UpdateFlags holds flags for the update command. Only flags the user set
// become part of the patch.
type UpdateFlags struct {
	Name        string
	Script      string
	Args        []string
	Interpreter string
	Cwd         string
	Env         []string
	Instances   int
	Watch       bool
	Autorestart bool
	Apply       bool
}

// DeleteFlags holds flags for the delete command.
type DeleteFlags struct {
	Name           string
	KeepSupervisor bool
}

// LogsFlags holds flags for the logs command.
type LogsFlags struct {
	Name   string
	Lines  int
	Stream string
	Fresh  bool
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen   string
	BasePath string
}
