// Package testutil provides a scripted TCP console server for exercising
// the telnet session layer without a GNS3 topology.
package testutil

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
)

// ConsoleScript describes how a fake console behaves. The server accepts
// any number of connections and plays the script on each one, so retry
// paths that reconnect see the same device.
type ConsoleScript struct {
	// Banner is written on connect, before the first prompt.
	Banner string

	// Prompt is written after the banner and after every response.
	Prompt string

	// Responses maps a received command line to its output. Commands not
	// in the map get an empty response and the next prompt.
	Responses map[string]string

	// SwallowPrompt lists commands after which the prompt is not re-emitted,
	// simulating a console that lost the completion prompt.
	SwallowPrompt map[string]bool

	// Negotiate leads the banner with telnet option negotiation
	// (IAC DO ECHO, IAC WILL SGA) to exercise the IAC filter.
	Negotiate bool

	// Login enables a login handshake before the command loop: the server
	// prompts "login: "/"Password: " and checks the pair below. On
	// mismatch it replies "Login incorrect" and prompts again.
	Login    bool
	Username string
	Password string
}

// Console is a running scripted console server.
type Console struct {
	Host string
	Port int

	listener net.Listener
	wg       sync.WaitGroup
}

// StartConsole starts a scripted console on a random loopback port. The
// server is shut down via t.Cleanup.
func StartConsole(t *testing.T, script ConsoleScript) *Console {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("testutil: listen: %v", err)
	}
	c := &Console{
		Host:     "127.0.0.1",
		Port:     ln.Addr().(*net.TCPAddr).Port,
		listener: ln,
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				serveConsole(conn, script)
			}()
		}
	}()

	t.Cleanup(func() {
		ln.Close()
		c.wg.Wait()
	})
	return c
}

func serveConsole(conn net.Conn, script ConsoleScript) {
	defer conn.Close()

	if script.Negotiate {
		conn.Write([]byte{255, 253, 1, 255, 251, 3}) // IAC DO ECHO, IAC WILL SGA
	}
	if script.Banner != "" {
		conn.Write([]byte(script.Banner))
	}

	r := bufio.NewReader(conn)

	if script.Login {
		if !serveLogin(conn, r, script) {
			return
		}
	}

	conn.Write([]byte(script.Prompt))
	for {
		line, err := readLine(r)
		if err != nil {
			return
		}
		if out, ok := script.Responses[line]; ok && out != "" {
			conn.Write([]byte(out))
			if !strings.HasSuffix(out, "\n") {
				conn.Write([]byte("\n"))
			}
		}
		if script.SwallowPrompt[line] {
			continue
		}
		conn.Write([]byte(script.Prompt))
	}
}

func serveLogin(conn net.Conn, r *bufio.Reader, script ConsoleScript) bool {
	for {
		conn.Write([]byte("login: "))
		user, err := readLine(r)
		if err != nil {
			return false
		}
		conn.Write([]byte("Password: "))
		pass, err := readLine(r)
		if err != nil {
			return false
		}
		if user == script.Username && pass == script.Password {
			return true
		}
		conn.Write([]byte("Login incorrect\n"))
	}
}

// readLine reads one telnet line, tolerating bare \r and \r\n endings and
// skipping empty lines.
func readLine(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.Trim(line, "\r\n")
		if line != "" {
			return line, nil
		}
	}
}
