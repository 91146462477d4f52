package main

import (
	"github.com/spf13/cobra"
)

// buildRoot creates the devserv command tree.
func buildRoot() *cobra.Command {
	gf := &GlobalFlags{}
	c := &command{gf: gf}

	root := &cobra.Command{
		Use:           "devserv",
		Short:         "Manage long-running dev servers through a process supervisor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&gf.ConfigPath, "config", "", "controller config file (TOML)")
	root.PersistentFlags().StringVar(&gf.RegistryPath, "registry", "", "registry document path")
	root.PersistentFlags().StringVar(&gf.SupervisorBin, "supervisor-bin", "", "supervisor binary")

	root.AddCommand(
		newRegisterCmd(c),
		newUpdateCmd(c),
		newStartCmd(c),
		newStopCmd(c),
		newRestartCmd(c),
		newDeleteCmd(c),
		newDescribeCmd(c),
		newStatusCmd(c),
		newLogsCmd(c),
		newServeCmd(c),
	)
	return root
}

func newRegisterCmd(c *command) *cobra.Command {
	f := RegisterFlags{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a dev server config (and start it unless --no-start)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Register(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "unique process name (required)")
	cmd.Flags().StringVar(&f.Script, "script", "", "script or command to run (required)")
	cmd.Flags().StringSliceVar(&f.Args, "arg", nil, "positional script argument (repeatable)")
	cmd.Flags().StringVar(&f.Interpreter, "interpreter", "", "script interpreter")
	cmd.Flags().StringVar(&f.Cwd, "cwd", "", "working directory")
	cmd.Flags().StringSliceVar(&f.Env, "env", nil, "KEY=VALUE environment entry (repeatable)")
	cmd.Flags().IntVar(&f.Instances, "instances", 1, "instance count")
	cmd.Flags().BoolVar(&f.Watch, "watch", false, "restart on file changes")
	cmd.Flags().BoolVar(&f.Autorestart, "autorestart", false, "restart automatically on crash")
	cmd.Flags().BoolVar(&f.NoStart, "no-start", false, "only persist, do not start")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func newUpdateCmd(c *command) *cobra.Command {
	f := UpdateFlags{}
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Patch a registered config; --apply recreates the live process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Update(cmd.Context(), cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "registered process name (required)")
	cmd.Flags().StringVar(&f.Script, "script", "", "script or command to run")
	cmd.Flags().StringSliceVar(&f.Args, "arg", nil, "positional script argument (repeatable)")
	cmd.Flags().StringVar(&f.Interpreter, "interpreter", "", "script interpreter")
	cmd.Flags().StringVar(&f.Cwd, "cwd", "", "working directory")
	cmd.Flags().StringSliceVar(&f.Env, "env", nil, "KEY=VALUE environment entry (repeatable)")
	cmd.Flags().IntVar(&f.Instances, "instances", 0, "instance count")
	cmd.Flags().BoolVar(&f.Watch, "watch", false, "restart on file changes")
	cmd.Flags().BoolVar(&f.Autorestart, "autorestart", false, "restart automatically on crash")
	cmd.Flags().BoolVar(&f.Apply, "apply", false, "delete and recreate the live process")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newStartCmd(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "start <name>",
		Short: "Start a registered dev server (duplicate-safe)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Start(cmd.Context(), args[0])
		},
	}
}

func newStopCmd(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a dev server (idempotent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Stop(cmd.Context(), args[0])
		},
	}
}

func newRestartCmd(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "restart <name>",
		Short: "Restart a dev server and reset its log freshness offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Restart(cmd.Context(), args[0])
		},
	}
}

func newDeleteCmd(c *command) *cobra.Command {
	f := DeleteFlags{}
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a dev server from the registry (idempotent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Name = args[0]
			return c.Delete(cmd.Context(), f)
		},
	}
	cmd.Flags().BoolVar(&f.KeepSupervisor, "keep-supervisor", false, "leave any live process in the supervisor")
	return cmd
}

func newDescribeCmd(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Show the supervisor's raw diagnostics for a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Describe(cmd.Context(), args[0])
		},
	}
}

func newStatusCmd(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show registered dev servers joined with live supervisor state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Status(cmd.Context())
		},
	}
}

func newLogsCmd(c *command) *cobra.Command {
	f := LogsFlags{}
	cmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Read process logs; --fresh serves only output since the last restart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Name = args[0]
			return c.Logs(cmd.Context(), f)
		},
	}
	cmd.Flags().IntVar(&f.Lines, "lines", 0, "number of lines to tail")
	cmd.Flags().StringVar(&f.Stream, "stream", "", "out, err, or empty for combined")
	cmd.Flags().BoolVar(&f.Fresh, "fresh", false, "only output produced since the last restart")
	return cmd
}

func newServeCmd(c *command) *cobra.Command {
	f := ServeFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry API over HTTP with prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Serve(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.Listen, "listen", "", "listen address (default from config)")
	cmd.Flags().StringVar(&f.BasePath, "base-path", "", "API base path (default from config)")
	return cmd
}
