package dispatch

import "github.com/gns3-copilot/netdispatch/pkg/profile"

// CaptureMode selects the shape of a successful command-phase result.
type CaptureMode int

const (
	// CaptureMap keys each command's cleaned output by the command text.
	CaptureMap CaptureMode = iota
	// CaptureStream concatenates all output into one string.
	CaptureStream
)

// Variant is the per-device-class policy injected into the engine: forced
// profile, output shape, login behavior. The control flow is shared; only
// these knobs differ between the three engines.
type Variant struct {
	Name string

	// ForcedProfile overrides whatever profile hint inventory suggests.
	// Making the override an explicit field keeps the policy auditable.
	ForcedProfile string

	// EmptySentinel is the success output for a device whose command list
	// is empty; no session is opened for it.
	EmptySentinel string

	Capture CaptureMode

	// Login runs the login state machine as a separate phase before the
	// command phase.
	Login bool

	// ConfigMode wraps the batch in configure terminal / end on cisco_ios
	// platforms.
	ConfigMode bool
}

// The three stock engine variants. Commands submitted to Show and Host are
// expected to be non-interactive and non-paginated; that guidance is
// documentation for callers, not a runtime check.
var (
	Show = Variant{
		Name:          "show",
		ForcedProfile: profile.CiscoIOSvTelnet,
		EmptySentinel: "No display commands to execute",
		Capture:       CaptureMap,
	}

	Config = Variant{
		Name:          "config",
		ForcedProfile: profile.CiscoIOSvTelnet,
		EmptySentinel: "No config commands to execute",
		Capture:       CaptureStream,
		ConfigMode:    true,
	}

	Host = Variant{
		Name:          "host",
		ForcedProfile: profile.LinuxTelnet,
		EmptySentinel: "No display commands to execute",
		Capture:       CaptureMap,
		Login:         true,
	}
)
