// Package settings manages persistent user settings for the netdispatch CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds persistent user preferences
type Settings struct {
	// Server is the GNS3 server URL to use when --server is not specified
	Server string `json:"server,omitempty"`

	// Project pins dispatches to a named GNS3 project instead of the
	// currently open one
	Project string `json:"project,omitempty"`

	// Topology is a static topology file used instead of the GNS3 API
	Topology string `json:"topology,omitempty"`

	// Profiles is a YAML file of credential profile overrides
	Profiles string `json:"profiles,omitempty"`

	// Workers overrides the default pool size
	Workers int `json:"workers,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "netdispatch_settings.json"
	}
	return filepath.Join(home, ".netdispatch", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetServer returns the GNS3 server URL (with fallback)
func (s *Settings) GetServer() string {
	if s.Server != "" {
		return s.Server
	}
	return "http://localhost:3080"
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
