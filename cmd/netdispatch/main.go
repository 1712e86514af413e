// Netdispatch - batch command dispatch for GNS3 topologies
//
// A CLI tool for running ordered command batches against simulated network
// devices over their console ports:
//   - One console session per device, devices in parallel (bounded pool)
//   - Per-device partial-failure semantics: one result record per request
//   - Single retry for transient prompt-detection timeouts
//
// The payload is a JSON array of {device_name, commands} objects; results
// come back as a JSON array in request order:
//
//	netdispatch show -f payload.json
//	echo '[{"device_name":"R-1","commands":["show version"]}]' | netdispatch show
//	netdispatch config -f changes.json --server http://gns3:3080
//	netdispatch host -f probes.json --user debian
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gns3-copilot/netdispatch/pkg/settings"
	"github.com/gns3-copilot/netdispatch/pkg/util"
	"github.com/gns3-copilot/netdispatch/pkg/version"
)

var (
	// Connection flags
	serverURL   string // --server
	projectName string // --project
	topologyFile string // --topology

	// Credential flags
	username string // --user
	password string // --pass

	// Option flags
	profilesPath string // --profiles
	payloadPath  string // -f, --file
	workers      int    // --workers
	showSummary  bool   // --summary
	verbose      bool   // -v

	// Global state
	userSettings *settings.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netdispatch",
	Short:             "Batch command dispatch for GNS3 topologies",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Netdispatch runs ordered command batches against simulated network
devices, one console session per device, devices in parallel.

Device inventory comes from the GNS3 server's currently open project
(--server/--project) or from a static topology file (--topology). Results
are printed as a JSON array with exactly one record per requested device,
in request order.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		// Load user settings
		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		// Apply defaults from settings
		if serverURL == "" {
			serverURL = userSettings.GetServer()
		}
		if projectName == "" {
			projectName = userSettings.Project
		}
		if topologyFile == "" {
			topologyFile = userSettings.Topology
		}
		if profilesPath == "" {
			profilesPath = userSettings.Profiles
		}
		if workers == 0 {
			workers = userSettings.Workers
		}

		// Quiet by default, verbose on -v
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "settings", "help", "version", "completion":
			return true
		}
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "GNS3 server URL (default http://localhost:3080)")
	rootCmd.PersistentFlags().StringVar(&projectName, "project", "", "GNS3 project name (default: the open project)")
	rootCmd.PersistentFlags().StringVar(&topologyFile, "topology", "", "Static topology file (YAML), bypasses the GNS3 API")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "Console username (host dispatches)")
	rootCmd.PersistentFlags().StringVar(&password, "pass", "", "Console password (host dispatches)")
	rootCmd.PersistentFlags().StringVar(&profilesPath, "profiles", "", "Credential profile overrides (YAML)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Concurrent device sessions (default 10, 1 serializes)")
	rootCmd.PersistentFlags().StringVarP(&payloadPath, "file", "f", "", "Payload file ('-' or empty reads stdin)")
	rootCmd.PersistentFlags().BoolVar(&showSummary, "summary", false, "Print a per-device summary table to stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(versionCmd)
}
