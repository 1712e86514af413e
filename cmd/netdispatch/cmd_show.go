package main

import (
	"github.com/spf13/cobra"

	"github.com/gns3-copilot/netdispatch/pkg/dispatch"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Run read-only display commands on IOS devices",
	Long: `Run read-only display commands against Cisco IOSv devices over their
GNS3 console ports. Output is keyed by command, one map per device.

Commands should be non-interactive, non-paginated, read-only display
commands (run "terminal length 0" material upstream): pagination and
confirmation prompts stall the console until the read timeout fires.
This is guidance for the caller; the engine does not inspect commands.

Payload example:
  [{"device_name": "R-1", "commands": ["show version", "show ip route"]}]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDispatch(cmd, dispatch.Show)
	},
}
