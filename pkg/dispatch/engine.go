package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gns3-copilot/netdispatch/pkg/console"
	"github.com/gns3-copilot/netdispatch/pkg/inventory"
	"github.com/gns3-copilot/netdispatch/pkg/profile"
	"github.com/gns3-copilot/netdispatch/pkg/util"
)

// Engine runs one variant of the batch dispatch. Engines hold no per-run
// state and are safe to reuse across dispatches; nothing is cached between
// runs.
type Engine struct {
	variant  Variant
	resolver inventory.Resolver
	registry *profile.Registry
	dialer   console.Dialer
	opts     Options
}

// New builds an engine. A nil registry uses the built-in profiles; the
// dialer is chosen per target protocol.
func New(variant Variant, resolver inventory.Resolver, registry *profile.Registry, opts Options) *Engine {
	if registry == nil {
		registry = profile.Builtin()
	}
	return &Engine{
		variant:  variant,
		resolver: resolver,
		registry: registry,
		dialer:   &protocolDialer{},
		opts:     opts,
	}
}

// WithDialer overrides the console dialer. Used by tests and by callers
// that tunnel console traffic.
func (e *Engine) WithDialer(d console.Dialer) *Engine {
	e.dialer = d
	return e
}

// Run executes the batches and returns one record per batch entry, in
// request order. The returned error is one of the three fatal classes
// (*InputError is produced by ParsePayload, *TopologyError and
// *PoolInitError here); per-device failures are folded into the records.
func (e *Engine) Run(ctx context.Context, batches []CommandBatch) ([]ResultRecord, error) {
	if len(batches) == 0 {
		return []ResultRecord{}, nil
	}

	names, commands := groupByDevice(batches)
	log := util.WithEngine(e.variant.Name)
	log.Infof("dispatching %d command batch(es) across %d device(s)", len(batches), len(names))

	endpoints, err := e.resolver.Resolve(ctx, names)
	if err != nil {
		return nil, &TopologyError{Devices: names, Err: err}
	}
	if len(endpoints) == 0 {
		return nil, &TopologyError{Devices: names}
	}

	hosts, err := e.buildHosts(names, endpoints)
	if err != nil {
		return nil, err
	}

	pool, err := newPool(e.opts)
	if err != nil {
		return nil, err
	}

	var logins map[string]TaskOutcome
	if e.variant.Login {
		logins = pool.run(ctx, e.loginTasks(names, hosts, commands))
	}

	outcomes := pool.run(ctx, e.commandTasks(names, hosts, commands, logins))

	return aggregate(e.variant, batches, hosts, logins, outcomes), nil
}

// RunJSON is the front door for callers holding a raw JSON payload. Fatal
// errors are downgraded to a single failure record so the caller always
// gets a well-formed result array; the error return covers only marshaling.
func (e *Engine) RunJSON(ctx context.Context, payload []byte) ([]byte, error) {
	batches, err := ParsePayload(payload)
	if err != nil {
		return marshalFatal(err)
	}
	records, err := e.Run(ctx, batches)
	if err != nil {
		return marshalFatal(err)
	}
	return json.Marshal(records)
}

func marshalFatal(err error) ([]byte, error) {
	return json.Marshal([]ResultRecord{{Status: StatusFailed, Error: err.Error()}})
}

// groupByDevice returns unique device names in first-appearance order and
// the command list per device. A device repeated across batches keeps the
// last batch's commands; every batch entry still gets its own record.
func groupByDevice(batches []CommandBatch) ([]string, map[string][]string) {
	names := make([]string, 0, len(batches))
	commands := make(map[string][]string, len(batches))
	for _, b := range batches {
		if _, seen := commands[b.DeviceName]; !seen {
			names = append(names, b.DeviceName)
		}
		commands[b.DeviceName] = b.Commands
	}
	return names, commands
}

// buildHosts merges resolved endpoints with the variant's forced profile.
// Devices missing from the endpoint map get no host record and no session
// attempt; the aggregator reports them individually.
func (e *Engine) buildHosts(names []string, endpoints map[string]inventory.Endpoint) (map[string]HostRecord, error) {
	prof, err := e.registry.Lookup(e.variant.ForcedProfile)
	if err != nil {
		return nil, &PoolInitError{Err: fmt.Errorf("variant %s: %w", e.variant.Name, err)}
	}

	hosts := make(map[string]HostRecord, len(endpoints))
	for _, name := range names {
		ep, ok := endpoints[name]
		if !ok {
			continue
		}
		hosts[name] = HostRecord{
			DeviceName: name,
			Host:       ep.Host,
			Port:       ep.Port,
			Profile:    prof,
		}
	}
	return hosts, nil
}

func (e *Engine) newTask(name string, hosts map[string]HostRecord, commands map[string][]string) *deviceTask {
	return &deviceTask{
		batch:   CommandBatch{DeviceName: name, Commands: commands[name]},
		host:    hosts[name],
		variant: e.variant,
		dialer:  e.dialer,
		opts:    e.opts,
	}
}

func (e *Engine) loginTasks(names []string, hosts map[string]HostRecord, commands map[string][]string) []taskFunc {
	tasks := make([]taskFunc, 0, len(names))
	for _, name := range names {
		if _, ok := hosts[name]; !ok {
			continue
		}
		task := e.newTask(name, hosts, commands)
		tasks = append(tasks, task.login)
	}
	return tasks
}

// commandTasks builds the command phase, skipping devices without a host
// record and devices whose login phase failed.
func (e *Engine) commandTasks(names []string, hosts map[string]HostRecord,
	commands map[string][]string, logins map[string]TaskOutcome) []taskFunc {

	tasks := make([]taskFunc, 0, len(names))
	for _, name := range names {
		if _, ok := hosts[name]; !ok {
			continue
		}
		if lo, ok := logins[name]; ok && lo.Failed {
			continue
		}
		task := e.newTask(name, hosts, commands)
		tasks = append(tasks, task.run)
	}
	return tasks
}

// protocolDialer routes each target to the dialer matching its profile's
// protocol.
type protocolDialer struct {
	telnet console.TelnetDialer
	ssh    console.SSHDialer
}

func (d *protocolDialer) Dial(ctx context.Context, target console.Target) (console.Session, error) {
	switch target.Profile.Protocol {
	case profile.ProtocolSSH:
		return d.ssh.Dial(ctx, target)
	default:
		return d.telnet.Dial(ctx, target)
	}
}
