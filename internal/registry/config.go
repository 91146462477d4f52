package registry

// ProcessConfig describes one managed dev server. Name is the registry key
// and the supervisor-side process name; it never changes after creation.
// LogOffset is a byte offset into the supervisor's stdout log file and is
// only mutated by the start/restart paths.
type ProcessConfig struct {
	Name        string            `json:"name"`
	Script      string            `json:"script"`
	Args        []string          `json:"args,omitempty"`
	Interpreter string            `json:"interpreter,omitempty"`
	Cwd         string            `json:"cwd,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Instances   int               `json:"instances,omitempty"`
	Watch       bool              `json:"watch,omitempty"`
	Autorestart bool              `json:"autorestart,omitempty"`
	LogOffset   int64             `json:"logOffset,omitempty"`
}

// Normalize clamps fields to their documented ranges.
func (c *ProcessConfig) Normalize() {
	if c.Instances < 1 {
		c.Instances = 1
	}
	if c.LogOffset < 0 {
		c.LogOffset = 0
	}
}

// Update is a partial patch over an existing ProcessConfig. Nil fields keep
// the prior value; a non-nil Env replaces the whole map. Name is never
// patched.
type Update struct {
	Script      *string           `json:"script,omitempty"`
	Args        []string          `json:"args,omitempty"`
	Interpreter *string           `json:"interpreter,omitempty"`
	Cwd         *string           `json:"cwd,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Instances   *int              `json:"instances,omitempty"`
	Watch       *bool             `json:"watch,omitempty"`
	Autorestart *bool             `json:"autorestart,omitempty"`
}

// Apply merges u over c and returns the result. c is not modified.
func (c ProcessConfig) Apply(u Update) ProcessConfig {
	out := c
	if u.Script != nil {
		out.Script = *u.Script
	}
	if u.Args != nil {
		out.Args = append([]string(nil), u.Args...)
	}
	if u.Interpreter != nil {
		out.Interpreter = *u.Interpreter
	}
	if u.Cwd != nil {
		out.Cwd = *u.Cwd
	}
	if u.Env != nil {
		env := make(map[string]string, len(u.Env))
		for k, v := range u.Env {
			env[k] = v
		}
		out.Env = env
	}
	if u.Instances != nil {
		out.Instances = *u.Instances
	}
	if u.Watch != nil {
		out.Watch = *u.Watch
	}
	if u.Autorestart != nil {
		out.Autorestart = *u.Autorestart
	}
	out.Normalize()
	return out
}
