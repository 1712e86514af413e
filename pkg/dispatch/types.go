// Package dispatch runs ordered command batches against simulated network
// devices: one console session per device, devices in parallel under a
// bounded pool, one result record per requested device in request order.
package dispatch

import "github.com/gns3-copilot/netdispatch/pkg/profile"

// CommandBatch is one device's ordered command list for a single dispatch.
// Command order within a device is significant; order across devices is not.
type CommandBatch struct {
	DeviceName string
	Commands   []string
}

// HostRecord is the pool's authoritative view of how to reach and
// authenticate to one device. Built once per dispatch, read-only afterwards.
type HostRecord struct {
	DeviceName string
	Host       string
	Port       int
	Profile    profile.Profile
}

// TaskOutcome is the raw result of one per-device phase (login or command
// execution). Discarded after aggregation.
type TaskOutcome struct {
	DeviceName string
	Failed     bool

	// Result is a per-command output map or a concatenated stream for the
	// command phase, a status string for the login phase, an error message
	// on failure.
	Result interface{}

	// Attempts counts command-phase attempts, at most 2.
	Attempts int
}

// Result statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ResultRecord is the external contract: exactly one per requested device,
// in request order. The zero DeviceName form carries a fatal top-level
// error.
type ResultRecord struct {
	DeviceName     string      `json:"device_name,omitempty"`
	Status         string      `json:"status"`
	Output         interface{} `json:"output,omitempty"`
	ConfigCommands []string    `json:"config_commands,omitempty"`
	Error          string      `json:"error,omitempty"`
	LoginStatus    string      `json:"login_status,omitempty"`
}
