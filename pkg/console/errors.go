package console

import (
	"errors"
	"fmt"
	"time"
)

// PromptTimeoutError reports that a session gave up waiting for the device
// prompt. This is the one transient failure class: GNS3 console PTYs under
// load can swallow the completion prompt of a multi-line command while the
// command itself succeeded, so callers may retry once on a fresh session.
type PromptTimeoutError struct {
	Device  string
	Command string
	Pattern string
	Elapsed time.Duration
}

func (e *PromptTimeoutError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("device %s: no prompt matching %q within %s after %q",
			e.Device, e.Pattern, e.Elapsed.Round(time.Millisecond), e.Command)
	}
	return fmt.Sprintf("device %s: no prompt matching %q within %s",
		e.Device, e.Pattern, e.Elapsed.Round(time.Millisecond))
}

// IsRetryable reports whether err is worth one retry on a fresh session.
// Only prompt-detection timeouts qualify; connection refusals, auth
// failures, and I/O errors are terminal.
func IsRetryable(err error) bool {
	var pte *PromptTimeoutError
	return errors.As(err, &pte)
}
