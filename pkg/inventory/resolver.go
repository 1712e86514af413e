// Package inventory resolves device names to console endpoints.
//
// The dispatch engine is topology-agnostic: it asks a Resolver for the
// console endpoints of the devices named in a batch and reports any device
// the resolver does not know. Two resolvers are provided, a map-backed
// static resolver for file-driven and test use, and a GNS3 REST resolver
// that reads the currently open project.
package inventory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Endpoint is a reachable console for one device.
type Endpoint struct {
	Host string
	Port int

	// ProfileHint names the credential profile that best fits the node
	// class. Advisory only; dispatch variants may force their own.
	ProfileHint string
}

// Resolver maps device names to console endpoints. Implementations return
// entries only for devices they know; absent devices are not an error.
type Resolver interface {
	Resolve(ctx context.Context, names []string) (map[string]Endpoint, error)
}

// StaticResolver serves endpoints from a fixed map.
type StaticResolver struct {
	endpoints map[string]Endpoint
}

// NewStatic returns a resolver over the given endpoint map.
func NewStatic(endpoints map[string]Endpoint) *StaticResolver {
	m := make(map[string]Endpoint, len(endpoints))
	for name, ep := range endpoints {
		m[name] = ep
	}
	return &StaticResolver{endpoints: m}
}

// Resolve returns the endpoints for the requested names that exist in the
// map. It never fails.
func (s *StaticResolver) Resolve(_ context.Context, names []string) (map[string]Endpoint, error) {
	out := make(map[string]Endpoint, len(names))
	for _, name := range names {
		if ep, ok := s.endpoints[name]; ok {
			out[name] = ep
		}
	}
	return out, nil
}

type staticFile struct {
	Devices map[string]struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		Profile string `yaml:"profile"`
	} `yaml:"devices"`
}

// LoadStatic reads a YAML topology file of the shape
//
//	devices:
//	  R-1: {host: 127.0.0.1, port: 5001, profile: cisco_iosv_telnet}
//
// and returns a static resolver over it.
func LoadStatic(path string) (*StaticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology %s: %w", path, err)
	}
	var file staticFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing topology %s: %w", path, err)
	}
	endpoints := make(map[string]Endpoint, len(file.Devices))
	for name, d := range file.Devices {
		if d.Host == "" || d.Port == 0 {
			return nil, fmt.Errorf("topology %s: device %s needs host and port", path, name)
		}
		endpoints[name] = Endpoint{Host: d.Host, Port: d.Port, ProfileHint: d.Profile}
	}
	return NewStatic(endpoints), nil
}
