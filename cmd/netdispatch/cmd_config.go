package main

import (
	"github.com/spf13/cobra"

	"github.com/gns3-copilot/netdispatch/pkg/dispatch"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Run configuration commands on IOS devices",
	Long: `Run configuration commands against Cisco IOSv devices. Each device's
batch is wrapped in "configure terminal" / "end" and executed in order
over a single console session; the output is one concatenated stream
per device.

The payload accepts "config_commands" as an alias for "commands":
  [{"device_name": "R-1", "config_commands": ["interface g0/0", "no shutdown"]}]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDispatch(cmd, dispatch.Config)
	},
}
