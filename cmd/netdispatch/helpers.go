package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gns3-copilot/netdispatch/pkg/cli"
	"github.com/gns3-copilot/netdispatch/pkg/dispatch"
	"github.com/gns3-copilot/netdispatch/pkg/inventory"
	"github.com/gns3-copilot/netdispatch/pkg/profile"
)

// readPayload returns the JSON payload from -f, or stdin when the flag is
// empty or "-".
func readPayload() ([]byte, error) {
	if payloadPath == "" || payloadPath == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading payload from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(payloadPath)
	if err != nil {
		return nil, fmt.Errorf("reading payload %s: %w", payloadPath, err)
	}
	return data, nil
}

// buildResolver picks the inventory source: a static topology file when
// --topology is set, otherwise the GNS3 REST API.
func buildResolver() (inventory.Resolver, error) {
	if topologyFile != "" {
		return inventory.LoadStatic(topologyFile)
	}
	r, err := inventory.NewGNS3(serverURL, username, password)
	if err != nil {
		return nil, err
	}
	if projectName != "" {
		r = r.WithProject(projectName)
	}
	return r, nil
}

// buildRegistry loads profile overrides and, for login-capable dispatches,
// injects console credentials from flags, environment, or an interactive
// prompt.
func buildRegistry(variant dispatch.Variant) (*profile.Registry, error) {
	registry := profile.Builtin()
	if profilesPath != "" {
		var err error
		registry, err = registry.LoadFile(profilesPath)
		if err != nil {
			return nil, err
		}
	}

	if !variant.Login {
		return registry, nil
	}

	creds := profile.Credentials{Username: username, Password: password}
	if creds.IsZero() {
		creds = profile.EnvCredentials("NETDISPATCH")
	}
	if creds.Username != "" && creds.Password == "" {
		pass, err := promptPassword(creds.Username)
		if err != nil {
			return nil, err
		}
		creds.Password = pass
	}
	if creds.IsZero() {
		return registry, nil
	}
	return registry.WithCredentials(variant.ForcedProfile, creds)
}

// promptPassword asks for a password on the terminal without echo. Falls
// back to a plain line read when stdin is not a TTY.
func promptPassword(user string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s: ", user)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pass, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pass), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// runDispatch wires up one engine run: payload in, a JSON record array on
// stdout, optional summary table on stderr. Fatal engine errors become a
// single failure record, matching the engine's JSON front door.
func runDispatch(cmd *cobra.Command, variant dispatch.Variant) error {
	payload, err := readPayload()
	if err != nil {
		return err
	}

	resolver, err := buildResolver()
	if err != nil {
		return err
	}
	registry, err := buildRegistry(variant)
	if err != nil {
		return err
	}

	engine := dispatch.New(variant, resolver, registry, dispatch.Options{Workers: workers})

	var records []dispatch.ResultRecord
	batches, err := dispatch.ParsePayload(payload)
	if err == nil {
		records, err = engine.Run(cmd.Context(), batches)
	}
	if err != nil {
		records = []dispatch.ResultRecord{{Status: dispatch.StatusFailed, Error: err.Error()}}
	}

	out, err := json.Marshal(records)
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if showSummary {
		printSummary(records)
	}
	return nil
}

func printSummary(records []dispatch.ResultRecord) {
	t := cli.NewTable(os.Stderr, "DEVICE", "STATUS", "DETAIL")
	for _, r := range records {
		detail := r.Error
		if detail == "" && r.LoginStatus != "" {
			detail = r.LoginStatus
		}
		name := r.DeviceName
		if name == "" {
			name = "(dispatch)"
		}
		t.Row(name, cli.Status(r.Status), cli.Truncate(detail, 60))
	}
	t.Flush()
}
