package inventory

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	resty "github.com/go-resty/resty/v2"

	"github.com/gns3-copilot/netdispatch/pkg/profile"
	"github.com/gns3-copilot/netdispatch/pkg/util"
)

// GNS3Resolver reads console endpoints from a GNS3 server's v2 REST API.
// Unless a project name is set it targets the currently open project, the
// same convention the GNS3 GUI uses.
type GNS3Resolver struct {
	client  *resty.Client
	project string
	host    string
}

// NewGNS3 returns a resolver against the given GNS3 server URL, e.g.
// "http://localhost:3080". Credentials are optional; GNS3 servers without
// auth ignore them.
func NewGNS3(serverURL, username, password string) (*GNS3Resolver, error) {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid GNS3 server URL %q", serverURL)
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(serverURL, "/"))
	if username != "" {
		client.SetBasicAuth(username, password)
	}
	return &GNS3Resolver{client: client, host: u.Hostname()}, nil
}

// WithProject pins the resolver to a project by name instead of whichever
// project is currently open.
func (g *GNS3Resolver) WithProject(name string) *GNS3Resolver {
	g.project = name
	return g
}

type gns3Project struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

type gns3Node struct {
	Name        string `json:"name"`
	NodeType    string `json:"node_type"`
	Console     int    `json:"console"`
	ConsoleHost string `json:"console_host"`
	ConsoleType string `json:"console_type"`
	Status      string `json:"status"`
}

// Resolve returns console endpoints for the requested device names found in
// the target project. Nodes without a console port are skipped.
func (g *GNS3Resolver) Resolve(ctx context.Context, names []string) (map[string]Endpoint, error) {
	project, err := g.findProject(ctx)
	if err != nil {
		return nil, err
	}

	var nodes []gns3Node
	res, err := g.client.R().
		SetContext(ctx).
		SetResult(&nodes).
		Get(fmt.Sprintf("/v2/projects/%s/nodes", project.ProjectID))
	if err != nil {
		return nil, fmt.Errorf("listing nodes for project %s: %w", project.Name, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("listing nodes for project %s: %s", project.Name, res.Status())
	}

	all := make(map[string]Endpoint, len(nodes))
	for _, n := range nodes {
		if n.Console == 0 {
			continue
		}
		host := n.ConsoleHost
		if host == "" || host == "0.0.0.0" || host == "::" {
			host = g.host
		}
		all[n.Name] = Endpoint{
			Host:        host,
			Port:        n.Console,
			ProfileHint: hintForNodeType(n.NodeType),
		}
	}
	util.WithFields(map[string]interface{}{
		"project": project.Name,
		"nodes":   len(all),
	}).Debug("resolved GNS3 topology")

	out := make(map[string]Endpoint, len(names))
	for _, name := range names {
		if ep, ok := all[name]; ok {
			out[name] = ep
		}
	}
	return out, nil
}

func (g *GNS3Resolver) findProject(ctx context.Context) (gns3Project, error) {
	var projects []gns3Project
	res, err := g.client.R().
		SetContext(ctx).
		SetResult(&projects).
		Get("/v2/projects")
	if err != nil {
		return gns3Project{}, fmt.Errorf("listing GNS3 projects: %w", err)
	}
	if res.IsError() {
		return gns3Project{}, fmt.Errorf("listing GNS3 projects: %s", res.Status())
	}

	for _, p := range projects {
		if g.project != "" {
			if p.Name == g.project {
				return p, nil
			}
			continue
		}
		if p.Status == "opened" {
			return p, nil
		}
	}
	if g.project != "" {
		return gns3Project{}, fmt.Errorf("GNS3 project %q not found", g.project)
	}
	return gns3Project{}, fmt.Errorf("no opened GNS3 project")
}

// hintForNodeType maps a GNS3 node type to the stock profile that usually
// drives it. Dynamips and IOU nodes run IOS images; docker nodes are Linux
// guests.
func hintForNodeType(nodeType string) string {
	switch nodeType {
	case "dynamips", "iou", "qemu":
		return profile.CiscoIOSvTelnet
	case "docker":
		return profile.LinuxTelnet
	case "vpcs":
		return profile.VPCSTelnet
	default:
		return ""
	}
}
