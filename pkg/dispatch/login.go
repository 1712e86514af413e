package dispatch

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gns3-copilot/netdispatch/pkg/util"
)

// Login statuses reported by the login phase.
const (
	loginOK      = "Login successful"
	loginAlready = "Already logged in"
)

// login runs the host variant's login phase on its own session. GNS3
// console PTYs persist between connections, so a device may already sit at
// a shell prompt; that counts as authenticated and skips the credential
// exchange.
func (t *deviceTask) login(ctx context.Context) TaskOutcome {
	device := t.batch.DeviceName
	log := util.WithDevice(device)

	status, err := t.loginAttempt(ctx)
	if err != nil {
		msg := fmt.Sprintf("Login failed: %v", err)
		log.Error(msg)
		return TaskOutcome{DeviceName: device, Failed: true, Result: msg}
	}
	log.Debugf("login phase: %s", status)
	return TaskOutcome{DeviceName: device, Result: status}
}

func (t *deviceTask) loginAttempt(ctx context.Context) (string, error) {
	p := t.host.Profile
	prompt := regexp.MustCompile(p.PromptPattern)
	loginRe, err := regexp.Compile(p.LoginPrompt)
	if err != nil || p.LoginPrompt == "" {
		return "", fmt.Errorf("profile %s has no usable login prompt", p.Name)
	}
	passRe, err := regexp.Compile(p.PasswordPrompt)
	if err != nil || p.PasswordPrompt == "" {
		return "", fmt.Errorf("profile %s has no usable password prompt", p.Name)
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	sess, err := t.dialer.Dial(ctx, t.target())
	if err != nil {
		return "", err
	}
	defer sess.Close()

	buffered, err := sess.ReadBuffered()
	if err != nil {
		return "", err
	}

	// A silent console needs a nudge before it shows anything.
	if !prompt.MatchString(buffered) && !loginRe.MatchString(buffered) {
		if err := sess.Write("\n"); err != nil {
			return "", err
		}
		buffered, err = sess.ReadUntil(ctx, loginRe, prompt)
		if err != nil {
			return "", err
		}
	}

	if prompt.MatchString(buffered) && !loginRe.MatchString(buffered) {
		return loginAlready, nil
	}

	if err := sess.Write(p.Username + "\n"); err != nil {
		return "", err
	}
	out, err := sess.ReadUntil(ctx, passRe, prompt)
	if err != nil {
		return "", err
	}
	if passRe.MatchString(out) {
		if err := sess.Write(p.Password + "\n"); err != nil {
			return "", err
		}
		if _, err := sess.ReadUntil(ctx, prompt); err != nil {
			return "", err
		}
	}
	return loginOK, nil
}
