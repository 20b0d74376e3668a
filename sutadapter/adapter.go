// Package sutadapter implements the System Under Test adapter: a thin
// mapping from protocol commands to kernel socket calls against the TCP
// implementation being exercised, grounded in tcpTester/sut.py.
package sutadapter

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/protocol"
)

// MaxRead bounds a single RECEIVE's read size.
const MaxRead = 4096

// DefaultTimeout is applied to LISTEN's accept and RECEIVE's read when no
// command-specific timeout is given.
const DefaultTimeout = 20 * time.Second

// UserError marks a protocol-invariant failure: payload mismatch, a
// SEND/RECEIVE issued on an uninitialised stream. Reported as
// RESULT.status=1.
type UserError struct{ msg string }

func (e *UserError) Error() string { return e.msg }

func userErrorf(format string, args ...any) error {
	return &UserError{msg: fmt.Sprintf(format, args...)}
}

// Adapter is the SUT: it owns at most one listening socket and one stream
// socket, single-threaded per connection, reset between test cases.
type Adapter struct {
	log internal.Logger

	listener net.Listener
	stream   net.Conn
}

// NewAdapter constructs an idle adapter.
func NewAdapter(log internal.Logger) *Adapter {
	return &Adapter{log: log}
}

// Reset closes any open sockets, transferring the adapter to a closed
// state: called whenever the incoming command's test_id changes.
func (a *Adapter) Reset() {
	if a.stream != nil {
		a.stream.Close()
		a.stream = nil
	}
	if a.listener != nil {
		a.listener.Close()
		a.listener = nil
	}
}

// HandleListen binds src_port, listens, and blocks for the single expected
// incoming connection. The listen backlog is the system default set by
// net.Listen, not one.
func (a *Adapter) HandleListen(p *protocol.ListenParams) (string, error) {
	a.Reset()
	addr := fmt.Sprintf(":%d", p.SrcPort)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return "", fmt.Errorf("sutadapter: listen on %s: %w", addr, err)
	}
	a.listener = ln

	type acceptResult struct {
		conn net.Conn
		err  error
	}
	done := make(chan acceptResult, 1)
	go func() {
		conn, err := ln.Accept()
		done <- acceptResult{conn, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("sutadapter: accept: %w", res.err)
		}
		a.stream = res.conn
		a.log.Debug("accepted connection", slog.String("remote", res.conn.RemoteAddr().String()))
		return fmt.Sprintf("accepted from %s", res.conn.RemoteAddr()), nil
	case <-time.After(DefaultTimeout):
		return "", userErrorf("accept timed out after %s", DefaultTimeout)
	}
}

// HandleConnect binds src_port (when nonzero) and dials destination:dst_port.
func (a *Adapter) HandleConnect(p *protocol.ConnectParams) (string, error) {
	a.Reset()
	dialer := net.Dialer{Timeout: DefaultTimeout}
	if p.SrcPort != 0 {
		local, err := net.ResolveTCPAddr("tcp4", fmt.Sprintf(":%d", p.SrcPort))
		if err != nil {
			return "", fmt.Errorf("sutadapter: resolve src_port %d: %w", p.SrcPort, err)
		}
		dialer.LocalAddr = local
	}
	addr := fmt.Sprintf("%s:%d", p.Destination, p.DstPort)
	conn, err := dialer.Dial("tcp4", addr)
	if err != nil {
		return "", fmt.Errorf("sutadapter: connect to %s: %w", addr, err)
	}
	a.stream = conn
	return fmt.Sprintf("connected to %s", addr), nil
}

// HandleSend writes payload to the stream socket in full.
func (a *Adapter) HandleSend(p *protocol.SendParams) (string, error) {
	if a.stream == nil {
		return "", userErrorf("stream not initialised")
	}
	n, err := a.stream.Write(p.Payload)
	if err != nil {
		return "", fmt.Errorf("sutadapter: send: %w", err)
	}
	return fmt.Sprintf("sent %d bytes", n), nil
}

// HandleReceive reads up to MaxRead bytes within the command's timeout (or
// DefaultTimeout if unset) and, if an expected payload was given, validates
// it byte-for-byte.
func (a *Adapter) HandleReceive(p *protocol.ReceiveParams) (string, error) {
	if a.stream == nil {
		return "", userErrorf("stream not initialised")
	}
	timeout := DefaultTimeout
	if p.TimeoutSeconds > 0 {
		timeout = time.Duration(p.TimeoutSeconds) * time.Second
	}
	if err := a.stream.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", fmt.Errorf("sutadapter: set read deadline: %w", err)
	}
	buf := make([]byte, MaxRead)
	n, err := a.stream.Read(buf)
	if err != nil {
		return "", userErrorf("receive failed: %v", err)
	}
	got := buf[:n]
	if len(p.Payload) != 0 && string(got) != string(p.Payload) {
		return "", userErrorf("invalid data received: %q", got)
	}
	return fmt.Sprintf("received %d bytes", n), nil
}

// HandleDisconnect shuts down the write half only (half_close) or closes
// both sockets outright.
func (a *Adapter) HandleDisconnect(p *protocol.DisconnectParams) (string, error) {
	if a.stream == nil {
		return "", userErrorf("stream not initialised")
	}
	if p.HalfClose {
		tcpConn, ok := a.stream.(*net.TCPConn)
		if !ok {
			return "", fmt.Errorf("sutadapter: half_close requires a TCP stream")
		}
		if err := tcpConn.CloseWrite(); err != nil {
			return "", fmt.Errorf("sutadapter: shutdown(write): %w", err)
		}
		return "half closed write side", nil
	}
	a.Reset()
	return "closed both sockets", nil
}

// HandleAbort closes both sockets without any graceful protocol exchange.
func (a *Adapter) HandleAbort() (string, error) {
	a.Reset()
	return "abort done", nil
}
