package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/gns3-copilot/netdispatch/pkg/console"
)

// fakeDevice scripts one device's behavior across sessions.
type fakeDevice struct {
	// buffered is what ReadBuffered returns on each session.
	buffered string
	// reads is the queue served by ReadUntil, one element per call.
	reads []string
	// outputs maps commands to Run output; unknown commands echo back.
	outputs map[string]string
	// failFirst makes Run fail on the first dialed session only.
	failFirst error
	// failAlways makes every Run fail.
	failAlways error
	// dialErr makes Dial fail outright.
	dialErr error
	// runDelay slows each Run down, for pool timing tests.
	runDelay time.Duration
}

// fakeDialer hands out scripted sessions and counts dials per device.
type fakeDialer struct {
	mu       sync.Mutex
	devices  map[string]*fakeDevice
	dials    map[string]int
	sessions map[string][]*fakeSession
}

func newFakeDialer(devices map[string]*fakeDevice) *fakeDialer {
	if devices == nil {
		devices = map[string]*fakeDevice{}
	}
	return &fakeDialer{
		devices:  devices,
		dials:    map[string]int{},
		sessions: map[string][]*fakeSession{},
	}
}

func (d *fakeDialer) Dial(_ context.Context, target console.Target) (console.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials[target.Device]++
	dev := d.devices[target.Device]
	if dev == nil {
		dev = &fakeDevice{}
	}
	if dev.dialErr != nil {
		return nil, dev.dialErr
	}
	s := &fakeSession{
		device:  target.Device,
		dev:     dev,
		attempt: d.dials[target.Device],
		reads:   append([]string(nil), dev.reads...),
	}
	d.sessions[target.Device] = append(d.sessions[target.Device], s)
	return s, nil
}

func (d *fakeDialer) dialCount(device string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[device]
}

// lastSession returns the most recent session opened for a device.
func (d *fakeDialer) lastSession(device string) *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	ss := d.sessions[device]
	if len(ss) == 0 {
		return nil
	}
	return ss[len(ss)-1]
}

type fakeSession struct {
	device  string
	dev     *fakeDevice
	attempt int

	mu     sync.Mutex
	reads  []string
	writes []string
	runs   []string
	closed bool
}

func (s *fakeSession) ReadBuffered() (string, error) {
	return s.dev.buffered, nil
}

func (s *fakeSession) ReadUntil(_ context.Context, patterns ...*regexp.Regexp) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reads) == 0 {
		pattern := ""
		if len(patterns) > 0 {
			pattern = patterns[0].String()
		}
		return "", &console.PromptTimeoutError{Device: s.device, Pattern: pattern}
	}
	out := s.reads[0]
	s.reads = s.reads[1:]
	return out, nil
}

func (s *fakeSession) Write(str string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, str)
	return nil
}

func (s *fakeSession) Run(ctx context.Context, cmd string) (string, error) {
	if s.dev.runDelay > 0 {
		select {
		case <-time.After(s.dev.runDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	s.runs = append(s.runs, cmd)
	s.mu.Unlock()

	if s.dev.failAlways != nil {
		return "", s.dev.failAlways
	}
	if s.dev.failFirst != nil && s.attempt == 1 {
		return "", s.dev.failFirst
	}
	if out, ok := s.dev.outputs[cmd]; ok {
		return out, nil
	}
	return fmt.Sprintf("ok: %s", cmd), nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) ranCommands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.runs...)
}
