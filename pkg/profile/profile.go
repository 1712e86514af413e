// Package profile holds the credential profile registry: named, immutable
// bundles of connection parameters for a class of console devices.
//
// A profile describes how to reach and talk to one device class (protocol,
// platform, prompt patterns, timeouts, line discipline). Profiles are
// resolved once per dispatch and never mutated while a dispatch is running;
// registries are copy-on-write.
package profile

import (
	"fmt"
	"os"
	"regexp"
	"time"
)

// Protocol names accepted in Profile.Protocol.
const (
	ProtocolTelnet = "telnet"
	ProtocolSSH    = "ssh"
)

// Platform names used by the dispatch variants.
const (
	PlatformCiscoIOS = "cisco_ios"
	PlatformLinux    = "linux"
	PlatformVPCS     = "vpcs"
)

// Built-in profile names.
const (
	CiscoIOSvTelnet = "cisco_iosv_telnet"
	LinuxTelnet     = "linux_telnet"
	VPCSTelnet      = "vpcs_telnet"
)

// Profile is a named bundle of connection parameters for a device class.
// Values are treated as immutable once a registry is built.
type Profile struct {
	Name     string
	Protocol string
	Platform string
	Username string
	Password string

	// Timeout bounds a whole per-device task (login + all commands).
	Timeout time.Duration

	// ReadTimeout bounds a single wait for a prompt after a command.
	ReadTimeout time.Duration

	// CommandInterval is the settle delay after writing a line, before the
	// session starts scanning for the prompt. Slow console PTYs (notably
	// Linux guests over the GNS3 console) echo asynchronously and need a
	// larger value.
	CommandInterval time.Duration

	// PromptPattern matches the shell/exec prompt that marks command
	// completion. LoginPrompt and PasswordPrompt drive the login state
	// machine of the host engine.
	PromptPattern  string
	LoginPrompt    string
	PasswordPrompt string
}

// Credentials carries a username/password pair injected per dispatch.
// Keeping credentials out of package state makes dispatches deterministic
// under test; nothing in the engine reads the process environment.
type Credentials struct {
	Username string
	Password string
}

// IsZero reports whether no credential material is present.
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Password == ""
}

// EnvCredentials reads <prefix>_USERNAME and <prefix>_PASSWORD from the
// environment. Intended for CLI wiring only; the engine never calls it.
func EnvCredentials(prefix string) Credentials {
	return Credentials{
		Username: os.Getenv(prefix + "_USERNAME"),
		Password: os.Getenv(prefix + "_PASSWORD"),
	}
}

// Validate checks that the profile is internally consistent and that its
// patterns compile.
func (p Profile) Validate() error {
	switch p.Protocol {
	case ProtocolTelnet, ProtocolSSH:
	default:
		return fmt.Errorf("profile %s: unknown protocol %q", p.Name, p.Protocol)
	}
	for _, pat := range []struct {
		field, value string
	}{
		{"prompt_pattern", p.PromptPattern},
		{"login_prompt", p.LoginPrompt},
		{"password_prompt", p.PasswordPrompt},
	} {
		if pat.value == "" {
			continue
		}
		if _, err := regexp.Compile(pat.value); err != nil {
			return fmt.Errorf("profile %s: %s: %w", p.Name, pat.field, err)
		}
	}
	if p.PromptPattern == "" {
		return fmt.Errorf("profile %s: prompt_pattern is required", p.Name)
	}
	return nil
}

// withDefaults fills zero-valued durations from the built-in defaults.
func (p Profile) withDefaults() Profile {
	if p.Protocol == "" {
		p.Protocol = ProtocolTelnet
	}
	if p.Timeout == 0 {
		p.Timeout = 120 * time.Second
	}
	if p.ReadTimeout == 0 {
		p.ReadTimeout = 15 * time.Second
	}
	if p.CommandInterval == 0 {
		p.CommandInterval = 100 * time.Millisecond
	}
	return p
}
