package manager

import (
	"context"
	"fmt"

	"github.com/loykin/devserv/internal/registry"
	"github.com/loykin/devserv/internal/supervisor"
)

// Action is the reconcile decision taken on a start request.
type Action string

const (
	ActionStarted        Action = "started"
	ActionAlreadyRunning Action = "already-running"
	ActionRestarted      Action = "restarted"
	ActionRecreated      Action = "recreated"
)

// ensureStarted enforces at-most-one live process per registered name. The
// supervisor itself has no uniqueness constraint on names; repeated starts
// would otherwise accumulate duplicates sharing a name and corrupt log
// tailing and status reporting.
func (m *Manager) ensureStarted(ctx context.Context, cfg registry.ProcessConfig) (Action, error) {
	desc, live := m.findLive(ctx, cfg.Name)
	switch {
	case !live:
		if err := m.sup.Start(ctx, startSpec(cfg)); err != nil {
			return "", err
		}
		return ActionStarted, nil
	case desc.Status == supervisor.StatusOnline:
		// Already satisfied; creating a second process would be worse than
		// doing nothing.
		return ActionAlreadyRunning, nil
	case desc.Status == supervisor.StatusStopped:
		// Restart keeps the existing supervisor entry instead of creating a
		// duplicate under the same name.
		switch m.sup.Restart(ctx, cfg.Name) {
		case supervisor.OutcomeSucceeded:
			return ActionRestarted, nil
		case supervisor.OutcomeNotFound:
			// Raced with an external delete; start fresh.
			if err := m.sup.Start(ctx, startSpec(cfg)); err != nil {
				return "", err
			}
			return ActionStarted, nil
		default:
			return "", fmt.Errorf("supervisor restart %s: supervisor unavailable", cfg.Name)
		}
	default:
		// Errored, launching, or any other state: the stale entry may not
		// reflect the desired configuration. Discard and recreate.
		m.sup.Delete(ctx, cfg.Name)
		if err := m.sup.Start(ctx, startSpec(cfg)); err != nil {
			return "", err
		}
		return ActionRecreated, nil
	}
}

func (m *Manager) findLive(ctx context.Context, name string) (supervisor.Descriptor, bool) {
	for _, d := range m.sup.List(ctx) {
		if d.Name == name {
			return d, true
		}
	}
	return supervisor.Descriptor{}, false
}

func startSpec(cfg registry.ProcessConfig) supervisor.StartSpec {
	return supervisor.StartSpec{
		Name:        cfg.Name,
		Script:      cfg.Script,
		Args:        cfg.Args,
		Interpreter: cfg.Interpreter,
		Cwd:         cfg.Cwd,
		Env:         cfg.Env,
		Instances:   cfg.Instances,
		Watch:       cfg.Watch,
		Autorestart: cfg.Autorestart,
	}
}
