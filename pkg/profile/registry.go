package profile

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry is an immutable set of named profiles. Derive modified
// registries with LoadFile or WithCredentials; never mutate in place.
type Registry struct {
	profiles map[string]Profile
}

// Builtin returns a registry with the three stock device classes used by
// GNS3 topologies: Cisco IOSv routers, Linux guests, and VPCS nodes, all
// reached over the raw telnet console.
func Builtin() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range []Profile{
		{
			Name:            CiscoIOSvTelnet,
			Protocol:        ProtocolTelnet,
			Platform:        PlatformCiscoIOS,
			Timeout:         120 * time.Second,
			ReadTimeout:     15 * time.Second,
			CommandInterval: 100 * time.Millisecond,
			PromptPattern:   `[\w.-]+[>#]\s*$`,
			LoginPrompt:     `[Uu]sername:\s*$`,
			PasswordPrompt:  `[Pp]assword:\s*$`,
		},
		{
			Name:            LinuxTelnet,
			Protocol:        ProtocolTelnet,
			Platform:        PlatformLinux,
			Timeout:         120 * time.Second,
			ReadTimeout:     30 * time.Second,
			CommandInterval: 300 * time.Millisecond,
			PromptPattern:   `[$#]\s*$`,
			LoginPrompt:     `login:\s*$`,
			PasswordPrompt:  `[Pp]assword:\s*$`,
		},
		{
			Name:            VPCSTelnet,
			Protocol:        ProtocolTelnet,
			Platform:        PlatformVPCS,
			Timeout:         30 * time.Second,
			ReadTimeout:     15 * time.Second,
			CommandInterval: 200 * time.Millisecond,
			PromptPattern:   `>\s*$`,
			LoginPrompt:     `login:\s*$`,
			PasswordPrompt:  `[Pp]assword:\s*$`,
		},
	} {
		r.profiles[p.Name] = p
	}
	return r
}

// Lookup returns the named profile.
func (r *Registry) Lookup(name string) (Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile '%s' not found", name)
	}
	return p, nil
}

// Names returns all profile names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// clone returns a shallow copy with a fresh profile map.
func (r *Registry) clone() *Registry {
	out := &Registry{profiles: make(map[string]Profile, len(r.profiles))}
	for name, p := range r.profiles {
		out.profiles[name] = p
	}
	return out
}

// WithCredentials returns a derived registry whose named profile carries the
// given credentials. The receiver is not modified.
func (r *Registry) WithCredentials(name string, creds Credentials) (*Registry, error) {
	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}
	out := r.clone()
	p.Username = creds.Username
	p.Password = creds.Password
	out.profiles[name] = p
	return out, nil
}

// yamlProfile is the on-disk shape of one profile. Durations are Go
// duration strings ("15s", "2m"); yaml.v3 does not decode time.Duration
// from strings directly.
type yamlProfile struct {
	Protocol        string `yaml:"protocol"`
	Platform        string `yaml:"platform"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Timeout         string `yaml:"timeout"`
	ReadTimeout     string `yaml:"read_timeout"`
	CommandInterval string `yaml:"command_interval"`
	PromptPattern   string `yaml:"prompt_pattern"`
	LoginPrompt     string `yaml:"login_prompt"`
	PasswordPrompt  string `yaml:"password_prompt"`
}

// registryFile is the on-disk YAML shape for profile overrides.
type registryFile struct {
	Profiles map[string]yamlProfile `yaml:"profiles"`
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func (yp yamlProfile) toProfile(name string) (Profile, error) {
	p := Profile{
		Name:           name,
		Protocol:       yp.Protocol,
		Platform:       yp.Platform,
		Username:       yp.Username,
		Password:       yp.Password,
		PromptPattern:  yp.PromptPattern,
		LoginPrompt:    yp.LoginPrompt,
		PasswordPrompt: yp.PasswordPrompt,
	}
	var err error
	if p.Timeout, err = parseDuration("timeout", yp.Timeout); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", name, err)
	}
	if p.ReadTimeout, err = parseDuration("read_timeout", yp.ReadTimeout); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", name, err)
	}
	if p.CommandInterval, err = parseDuration("command_interval", yp.CommandInterval); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", name, err)
	}
	return p.withDefaults(), nil
}

// LoadFile returns a derived registry with profiles from a YAML file added
// or replaced. Zero-valued fields in the file are filled with defaults, and
// every resulting profile is validated.
func (r *Registry) LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles %s: %w", path, err)
	}

	out := r.clone()
	for name, yp := range file.Profiles {
		p, err := yp.toProfile(name)
		if err != nil {
			return nil, fmt.Errorf("parsing profiles %s: %w", path, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("validating profiles %s: %w", path, err)
		}
		out.profiles[name] = p
	}
	return out, nil
}
