// Package console drives interactive device consoles over telnet and SSH.
//
// A Session wraps one live console connection with a prompt engine: write a
// line, wait for output, match the device prompt. Sessions are single-use
// and not safe for concurrent callers; the dispatch layer opens one per
// device task and a fresh one per retry.
package console

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gns3-copilot/netdispatch/pkg/profile"
)

// Target identifies one console to dial.
type Target struct {
	Device  string
	Host    string
	Port    int
	Profile profile.Profile
}

// Session is one live console connection.
type Session interface {
	// ReadBuffered drains whatever the console has already emitted
	// (banners, motd, a pending prompt). Returns the empty string when the
	// console is silent.
	ReadBuffered() (string, error)

	// ReadUntil reads until any of the patterns matches the accumulated
	// output, returning everything read. A *PromptTimeoutError is returned
	// when nothing matches within the profile's ReadTimeout.
	ReadUntil(ctx context.Context, patterns ...*regexp.Regexp) (string, error)

	// Write sends raw bytes to the console. Callers append their own line
	// terminator.
	Write(s string) error

	// Run writes a command line and reads until the device prompt,
	// returning the cleaned output (echo and trailing prompt stripped).
	Run(ctx context.Context, cmd string) (string, error)

	Close() error
}

// Dialer opens console sessions.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Session, error)
}

// transport is the raw byte pipe under a session. readChunk returns
// errNoData when nothing arrived within the window.
type transport interface {
	readChunk(timeout time.Duration) ([]byte, error)
	write(p []byte) error
	close() error
}

var errNoData = errors.New("no data within read window")

// pollInterval bounds one readChunk wait so context cancellation stays
// responsive even with long ReadTimeouts.
const pollInterval = 250 * time.Millisecond

// bannerWindow bounds how long ReadBuffered waits for a silent console.
const bannerWindow = 2 * time.Second

type session struct {
	target Target
	prompt *regexp.Regexp
	tr     transport
	buf    bytes.Buffer
}

// newSession wraps a transport with the prompt engine. The profile's
// PromptPattern must already be validated.
func newSession(target Target, tr transport) *session {
	return &session{
		target: target,
		prompt: regexp.MustCompile(target.Profile.PromptPattern),
		tr:     tr,
	}
}

func (s *session) ReadBuffered() (string, error) {
	deadline := time.Now().Add(bannerWindow)
	settle := s.target.Profile.CommandInterval
	if settle <= 0 {
		settle = pollInterval
	}
	for time.Now().Before(deadline) {
		chunk, err := s.tr.readChunk(settle)
		if err == errNoData {
			if s.buf.Len() > 0 {
				break
			}
			continue
		}
		if err != nil {
			return "", err
		}
		s.buf.Write(chunk)
	}
	out := s.buf.String()
	s.buf.Reset()
	return out, nil
}

func (s *session) ReadUntil(ctx context.Context, patterns ...*regexp.Regexp) (string, error) {
	deadline := time.Now().Add(s.target.Profile.ReadTimeout)
	start := time.Now()
	for {
		for _, pat := range patterns {
			if pat.MatchString(s.buf.String()) {
				out := s.buf.String()
				s.buf.Reset()
				return out, nil
			}
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			pattern := ""
			if len(patterns) > 0 {
				pattern = patterns[0].String()
			}
			return "", &PromptTimeoutError{
				Device:  s.target.Device,
				Pattern: pattern,
				Elapsed: time.Since(start),
			}
		}
		window := remaining
		if window > pollInterval {
			window = pollInterval
		}
		chunk, err := s.tr.readChunk(window)
		if err == errNoData {
			continue
		}
		if err != nil {
			return "", err
		}
		s.buf.Write(chunk)
	}
}

func (s *session) Write(str string) error {
	return s.tr.write([]byte(str))
}

func (s *session) Run(ctx context.Context, cmd string) (string, error) {
	if err := s.Write(cmd + "\n"); err != nil {
		return "", err
	}
	if settle := s.target.Profile.CommandInterval; settle > 0 {
		select {
		case <-time.After(settle):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	raw, err := s.ReadUntil(ctx, s.prompt)
	if err != nil {
		var pte *PromptTimeoutError
		if errors.As(err, &pte) {
			pte.Command = cmd
		}
		return "", err
	}
	return cleanOutput(raw, cmd, s.prompt), nil
}

func (s *session) Close() error {
	return s.tr.close()
}

// cleanOutput normalizes line endings, drops the echoed command line, and
// strips the trailing prompt.
func cleanOutput(raw, cmd string, prompt *regexp.Regexp) string {
	out := strings.ReplaceAll(raw, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\r", "\n")

	lines := strings.Split(out, "\n")

	// The console echoes each line of the command back before the output.
	echo := strings.Split(cmd, "\n")
	for len(lines) > 0 && len(echo) > 0 && strings.TrimSpace(lines[0]) == strings.TrimSpace(echo[0]) {
		lines = lines[1:]
		echo = echo[1:]
	}

	for len(lines) > 0 {
		last := lines[len(lines)-1]
		if strings.TrimSpace(last) == "" || prompt.MatchString(last) {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	return strings.Join(lines, "\n")
}
