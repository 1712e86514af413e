package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/gns3-copilot/netdispatch/pkg/console"
	"github.com/gns3-copilot/netdispatch/pkg/profile"
	"github.com/gns3-copilot/netdispatch/pkg/util"
)

// deviceTask is the unit of concurrent work: one device, one console
// session per attempt, commands strictly in order. Tasks never share
// sessions with each other or across retries.
type deviceTask struct {
	batch   CommandBatch
	host    HostRecord
	variant Variant
	dialer  console.Dialer
	opts    Options
}

func (t *deviceTask) target() console.Target {
	return console.Target{
		Device:  t.host.DeviceName,
		Host:    t.host.Host,
		Port:    t.host.Port,
		Profile: t.host.Profile,
	}
}

func (t *deviceTask) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := t.opts.TaskTimeout
	if timeout == 0 {
		timeout = t.host.Profile.Timeout
	}
	if timeout == 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// run executes the command phase. The phase is attempted at most twice; a
// second attempt only follows a retryable prompt-detection timeout, on a
// fresh session. Any other error is terminal on first occurrence.
func (t *deviceTask) run(ctx context.Context) TaskOutcome {
	device := t.batch.DeviceName
	log := util.WithDevice(device)

	if len(t.batch.Commands) == 0 {
		log.Debug("no commands, returning sentinel")
		return TaskOutcome{DeviceName: device, Result: t.variant.EmptySentinel}
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	result, err := t.attempt(ctx)
	attempts := 1
	if err != nil && console.IsRetryable(err) {
		log.Warnf("prompt detection timed out, retrying on a fresh session: %v", err)
		result, err = t.attempt(ctx)
		attempts = 2
	}
	if err != nil {
		tag := "unhandled error"
		if attempts == 2 {
			tag = "retry exhausted"
		}
		msg := fmt.Sprintf("command execution failed (%s): %v", tag, err)
		log.Error(msg)
		return TaskOutcome{DeviceName: device, Failed: true, Result: msg, Attempts: attempts}
	}

	log.Debugf("command phase done after %d attempt(s)", attempts)
	return TaskOutcome{DeviceName: device, Result: result, Attempts: attempts}
}

// attempt opens one session and runs the whole batch over it.
func (t *deviceTask) attempt(ctx context.Context) (interface{}, error) {
	sess, err := t.dialer.Dial(ctx, t.target())
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	// Drain the banner and any pending prompt so the first command does
	// not match stale output.
	if _, err := sess.ReadBuffered(); err != nil {
		return nil, err
	}

	commands := t.batch.Commands
	configWrap := t.variant.ConfigMode && t.host.Profile.Platform == profile.PlatformCiscoIOS

	var stream strings.Builder
	outputs := make(map[string]string, len(commands))

	if configWrap {
		out, err := sess.Run(ctx, "configure terminal")
		if err != nil {
			return nil, err
		}
		stream.WriteString(out)
	}
	for _, cmd := range commands {
		out, err := sess.Run(ctx, cmd)
		if err != nil {
			return nil, err
		}
		outputs[cmd] = out
		if stream.Len() > 0 && out != "" {
			stream.WriteString("\n")
		}
		stream.WriteString(out)
	}
	if configWrap {
		out, err := sess.Run(ctx, "end")
		if err != nil {
			return nil, err
		}
		if stream.Len() > 0 && out != "" {
			stream.WriteString("\n")
		}
		stream.WriteString(out)
	}

	if t.variant.Capture == CaptureStream {
		return stream.String(), nil
	}
	return outputs, nil
}
