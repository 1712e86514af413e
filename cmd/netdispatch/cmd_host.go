package main

import (
	"github.com/spf13/cobra"

	"github.com/gns3-copilot/netdispatch/pkg/dispatch"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Log in to Linux guests and run shell commands",
	Long: `Log in to Linux guests over their GNS3 console ports and run shell
commands. Each device gets a login phase first: a console already
sitting at a shell prompt counts as authenticated, otherwise the
username and password are exchanged against the login prompt. Results
carry a "login_status" field alongside the per-command output map.

Credentials come from --user/--pass, the NETDISPATCH_USERNAME and
NETDISPATCH_PASSWORD environment variables, or an interactive prompt
when only the username is known.

Commands should be non-interactive and non-paginated (no editors, no
pagers); interactive commands stall the console until the read timeout
fires. This is guidance for the caller; the engine does not inspect
commands.

Payload example:
  [{"device_name": "host-1", "commands": ["ip addr", "cat /etc/os-release"]}]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDispatch(cmd, dispatch.Host)
	},
}
