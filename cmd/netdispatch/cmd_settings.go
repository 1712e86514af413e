package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gns3-copilot/netdispatch/pkg/cli"
	"github.com/gns3-copilot/netdispatch/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.netdispatch/settings.json.

Settings provide defaults for the connection flags:
  - server:   Used when --server is not specified
  - project:  Used when --project is not specified
  - topology: Used when --topology is not specified
  - profiles: Used when --profiles is not specified
  - workers:  Used when --workers is not specified

Examples:
  netdispatch settings show
  netdispatch settings set server http://gns3:3080
  netdispatch settings set workers 5
  netdispatch settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		t := cli.NewTable(cmd.OutOrStdout(), "SETTING", "VALUE")

		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			t.Row(name, value)
		}

		printSetting("server", s.Server)
		printSetting("project", s.Project)
		printSetting("topology", s.Topology)
		printSetting("profiles", s.Profiles)
		if s.Workers != 0 {
			t.Row("workers", strconv.Itoa(s.Workers))
		} else {
			t.Row("workers", "(not set)")
		}

		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		name, value := args[0], args[1]
		switch name {
		case "server":
			s.Server = value
		case "project":
			s.Project = value
		case "topology":
			s.Topology = value
		case "profiles":
			s.Profiles = value
		case "workers":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return fmt.Errorf("workers must be a positive integer, got %q", value)
			}
			s.Workers = n
		default:
			return fmt.Errorf("unknown setting %q (server, project, topology, profiles, workers)", name)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Printf("%s = %s\n", name, value)
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all settings to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		s.Clear()
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("Settings cleared")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
}
