package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuiltinProfiles(t *testing.T) {
	r := Builtin()

	tests := []struct {
		name     string
		platform string
		protocol string
	}{
		{CiscoIOSvTelnet, PlatformCiscoIOS, ProtocolTelnet},
		{LinuxTelnet, PlatformLinux, ProtocolTelnet},
		{VPCSTelnet, PlatformVPCS, ProtocolTelnet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup(%q): %v", tt.name, err)
			}
			if p.Platform != tt.platform {
				t.Errorf("platform = %q, want %q", p.Platform, tt.platform)
			}
			if p.Protocol != tt.protocol {
				t.Errorf("protocol = %q, want %q", p.Protocol, tt.protocol)
			}
			if err := p.Validate(); err != nil {
				t.Errorf("built-in profile should validate: %v", err)
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Builtin().Lookup("no_such_profile")
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should mention not found: %v", err)
	}
}

func TestNames(t *testing.T) {
	names := Builtin().Names()
	if len(names) != 3 {
		t.Fatalf("expected 3 built-in profiles, got %d: %v", len(names), names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestWithCredentials(t *testing.T) {
	base := Builtin()
	derived, err := base.WithCredentials(LinuxTelnet, Credentials{Username: "debian", Password: "secret"})
	if err != nil {
		t.Fatalf("WithCredentials: %v", err)
	}

	p, err := derived.Lookup(LinuxTelnet)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if p.Username != "debian" || p.Password != "secret" {
		t.Errorf("derived profile missing credentials: %+v", p)
	}

	// Base registry must be untouched.
	orig, _ := base.Lookup(LinuxTelnet)
	if orig.Username != "" || orig.Password != "" {
		t.Errorf("base registry was mutated: %+v", orig)
	}
}

func TestWithCredentialsUnknownProfile(t *testing.T) {
	_, err := Builtin().WithCredentials("bogus", Credentials{Username: "x"})
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	content := `
profiles:
  cisco_iosv_telnet:
    platform: cisco_ios
    timeout: 60s
    read_timeout: 5s
    prompt_pattern: '[\w.-]+[>#]\s*$'
  frr_ssh:
    protocol: ssh
    platform: linux
    username: frr
    password: frr
    prompt_pattern: '[$#]\s*$'
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Builtin().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	// Override replaced the built-in timeout.
	cisco, err := r.Lookup(CiscoIOSvTelnet)
	if err != nil {
		t.Fatal(err)
	}
	if cisco.Timeout != 60*time.Second {
		t.Errorf("timeout = %v, want 60s", cisco.Timeout)
	}
	if cisco.ReadTimeout != 5*time.Second {
		t.Errorf("read_timeout = %v, want 5s", cisco.ReadTimeout)
	}

	// New profile present with defaults filled in.
	frr, err := r.Lookup("frr_ssh")
	if err != nil {
		t.Fatal(err)
	}
	if frr.Protocol != ProtocolSSH {
		t.Errorf("protocol = %q, want ssh", frr.Protocol)
	}
	if frr.Timeout != 120*time.Second {
		t.Errorf("defaulted timeout = %v, want 120s", frr.Timeout)
	}
	if frr.CommandInterval == 0 {
		t.Error("command_interval should be defaulted")
	}
}

func TestLoadFileBadPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	content := `
profiles:
  broken:
    prompt_pattern: '[unclosed'
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Builtin().LoadFile(path); err == nil {
		t.Fatal("expected validation error for bad prompt pattern")
	}
}

func TestLoadFileBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	content := `
profiles:
  broken:
    timeout: fast
    prompt_pattern: '>$'
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Builtin().LoadFile(path); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := Builtin().LoadFile("/nonexistent/profiles.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Profile
		wantErr bool
	}{
		{"valid", Profile{Name: "p", Protocol: ProtocolTelnet, PromptPattern: `>$`}, false},
		{"bad protocol", Profile{Name: "p", Protocol: "serial", PromptPattern: `>$`}, true},
		{"missing prompt", Profile{Name: "p", Protocol: ProtocolTelnet}, true},
		{"bad login pattern", Profile{Name: "p", Protocol: ProtocolTelnet, PromptPattern: `>$`, LoginPrompt: `[`}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("NETDISPATCH_TEST_USERNAME", "operator")
	t.Setenv("NETDISPATCH_TEST_PASSWORD", "hunter2")

	creds := EnvCredentials("NETDISPATCH_TEST")
	if creds.Username != "operator" || creds.Password != "hunter2" {
		t.Errorf("EnvCredentials = %+v", creds)
	}
	if creds.IsZero() {
		t.Error("credentials should not be zero")
	}

	if !EnvCredentials("NETDISPATCH_UNSET").IsZero() {
		t.Error("unset credentials should be zero")
	}
}
