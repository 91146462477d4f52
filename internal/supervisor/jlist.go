package supervisor

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Process states reported by the supervisor.
const (
	StatusOnline    = "online"
	StatusStopped   = "stopped"
	StatusErrored   = "errored"
	StatusLaunching = "launching"
)

// Descriptor is one live process as reported by the supervisor's jlist dump.
type Descriptor struct {
	Name       string  `json:"name"`
	PID        int     `json:"pid"`
	Status     string  `json:"status"`
	CPU        float64 `json:"cpu"`
	Memory     uint64  `json:"memory"`
	OutLogPath string  `json:"out_log_path,omitempty"`
	ErrLogPath string  `json:"err_log_path,omitempty"`
}

// jlistEntry mirrors the supervisor's own JSON shape for one process.
type jlistEntry struct {
	Name string `json:"name"`
	PID  int    `json:"pid"`
	Env  struct {
		Status     string `json:"status"`
		OutLogPath string `json:"pm_out_log_path"`
		ErrLogPath string `json:"pm_err_log_path"`
	} `json:"pm2_env"`
	Monit struct {
		Memory uint64  `json:"memory"`
		CPU    float64 `json:"cpu"`
	} `json:"monit"`
}

// parseJList decodes the jlist output into descriptors. The supervisor may
// print daemon-spawn banners before the JSON array, and those banners
// themselves contain brackets, so each '[' is tried until one decodes.
func parseJList(data []byte) ([]Descriptor, error) {
	var entries []jlistEntry
	rest := data
	off := 0
	for {
		i := bytes.IndexByte(rest, '[')
		if i < 0 {
			return nil, errors.New("no JSON array in jlist output")
		}
		if err := json.Unmarshal(data[off+i:], &entries); err == nil {
			break
		}
		rest = rest[i+1:]
		off += i + 1
	}
	descs := make([]Descriptor, 0, len(entries))
	for _, e := range entries {
		descs = append(descs, Descriptor{
			Name:       e.Name,
			PID:        e.PID,
			Status:     e.Env.Status,
			CPU:        e.Monit.CPU,
			Memory:     e.Monit.Memory,
			OutLogPath: e.Env.OutLogPath,
			ErrLogPath: e.Env.ErrLogPath,
		})
	}
	return descs, nil
}
