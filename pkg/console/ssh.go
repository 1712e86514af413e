package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/gns3-copilot/netdispatch/pkg/util"
)

// SSHDialer opens interactive shell sessions over SSH with password auth.
type SSHDialer struct {
	// DialTimeout bounds the TCP connect and handshake. Zero means 10 seconds.
	DialTimeout time.Duration
}

func (d *SSHDialer) Dial(ctx context.Context, target Target) (Session, error) {
	timeout := d.DialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	config := &ssh.ClientConfig{
		User: target.Profile.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(target.Profile.Password),
		},
		// Lab/test environment — production would verify host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := fmt.Sprintf("%s:%d", target.Host, target.Port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", addr, err)
	}

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("SSH session %s: %w", addr, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := sess.RequestPty("vt100", 80, 200, modes); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("SSH pty %s: %w", addr, err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("SSH stdin %s: %w", addr, err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("SSH stdout %s: %w", addr, err)
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("SSH shell %s: %w", addr, err)
	}
	util.WithDevice(target.Device).Debugf("SSH shell opened: %s", addr)

	tr := &sshTransport{
		client:  client,
		session: sess,
		stdin:   stdin,
		chunks:  make(chan []byte, 16),
		readErr: make(chan error, 1),
		done:    make(chan struct{}),
	}
	go tr.pump(stdout)

	return newSession(target, tr), nil
}

// sshTransport adapts an interactive SSH shell to the transport interface.
// A pump goroutine moves stdout into a channel so reads can time out; the
// SSH stream itself has no read deadlines.
type sshTransport struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	chunks  chan []byte
	readErr chan error
	done    chan struct{}
}

func (t *sshTransport) pump(stdout io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.chunks <- chunk:
			case <-t.done:
				return
			}
		}
		if err != nil {
			t.readErr <- err
			close(t.chunks)
			return
		}
	}
}

func (t *sshTransport) readChunk(timeout time.Duration) ([]byte, error) {
	select {
	case chunk, ok := <-t.chunks:
		if !ok {
			return nil, <-t.readErr
		}
		return chunk, nil
	case <-time.After(timeout):
		return nil, errNoData
	}
}

func (t *sshTransport) write(p []byte) error {
	_, err := t.stdin.Write(p)
	return err
}

func (t *sshTransport) close() error {
	close(t.done)
	t.session.Close()
	return t.client.Close()
}
