package console

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/gns3-copilot/netdispatch/pkg/util"
)

// Telnet protocol bytes. GNS3 consoles speak mostly-raw telnet; option
// negotiation shows up on connect and must be answered or stripped.
const (
	telnetSE   = 240
	telnetSB   = 250
	telnetWILL = 251
	telnetWONT = 252
	telnetDO   = 253
	telnetDONT = 254
	telnetIAC  = 255
)

// TelnetDialer opens raw telnet console sessions. All option negotiation is
// refused: every DO is answered WONT, every WILL is answered DONT, and
// subnegotiation blocks are discarded.
type TelnetDialer struct {
	// DialTimeout bounds the TCP connect. Zero means 10 seconds.
	DialTimeout time.Duration
}

func (d *TelnetDialer) Dial(ctx context.Context, target Target) (Session, error) {
	timeout := d.DialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	addr := fmt.Sprintf("%s:%d", target.Host, target.Port)

	var nd net.Dialer
	nd.Timeout = timeout
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("telnet dial %s: %w", addr, err)
	}
	util.WithDevice(target.Device).Debugf("telnet console connected: %s", addr)

	return newSession(target, &telnetTransport{conn: conn}), nil
}

// telnetTransport reads from a TCP console, filtering telnet control
// sequences out of the data stream.
type telnetTransport struct {
	conn net.Conn

	// negotiation state across chunk boundaries
	state   int // 0 data, 1 after IAC, 2 after IAC DO/DONT/WILL/WONT, 3 in subnegotiation, 4 in SB after IAC
	pending byte
}

func (t *telnetTransport) readChunk(timeout time.Duration) ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, 4096)
	n, err := t.conn.Read(buf)
	if n > 0 {
		data, replies := t.filter(buf[:n])
		if len(replies) > 0 {
			t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if _, werr := t.conn.Write(replies); werr != nil {
				return nil, werr
			}
		}
		if len(data) == 0 && err == nil {
			return nil, errNoData
		}
		return data, nil
	}
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, errNoData
		}
		if os.IsTimeout(err) {
			return nil, errNoData
		}
		return nil, err
	}
	return nil, errNoData
}

// filter strips telnet control sequences from p, returning the remaining
// data bytes and the refusal replies to send back.
func (t *telnetTransport) filter(p []byte) (data, replies []byte) {
	for _, b := range p {
		switch t.state {
		case 0: // data
			if b == telnetIAC {
				t.state = 1
				continue
			}
			data = append(data, b)
		case 1: // after IAC
			switch b {
			case telnetDO, telnetDONT, telnetWILL, telnetWONT:
				t.pending = b
				t.state = 2
			case telnetSB:
				t.state = 3
			case telnetIAC: // escaped 0xff data byte
				data = append(data, b)
				t.state = 0
			default: // two-byte command, ignore
				t.state = 0
			}
		case 2: // option byte of DO/DONT/WILL/WONT
			switch t.pending {
			case telnetDO:
				replies = append(replies, telnetIAC, telnetWONT, b)
			case telnetWILL:
				replies = append(replies, telnetIAC, telnetDONT, b)
			}
			t.state = 0
		case 3: // inside subnegotiation
			if b == telnetIAC {
				t.state = 4
			}
		case 4: // IAC inside subnegotiation
			if b == telnetSE {
				t.state = 0
			} else {
				t.state = 3
			}
		}
	}
	return data, replies
}

func (t *telnetTransport) write(p []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	_, err := t.conn.Write(p)
	return err
}

func (t *telnetTransport) close() error {
	return t.conn.Close()
}
