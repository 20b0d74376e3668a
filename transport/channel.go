// Package transport carries protocol.Command values between the Test
// Runner and each party over a WebSocket connection: one endpoint under
// "/ts" for the Test Server, one under "/sut" for the SUT adapter.
package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/soypat/tcptester/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Channel wraps a *websocket.Conn with Command-typed send/receive and a
// write mutex, since gorilla/websocket forbids concurrent writers on one
// connection.
type Channel struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewChannel wraps an already-established WebSocket connection.
func NewChannel(conn *websocket.Conn) *Channel {
	return &Channel{conn: conn}
}

// SendCommand encodes and writes cmd as a single WebSocket text message.
func (c *Channel) SendCommand(cmd protocol.Command) error {
	b, err := protocol.Encode(cmd)
	if err != nil {
		return fmt.Errorf("transport: encode command: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// RecvCommand blocks for the next WebSocket message and decodes it.
func (c *Channel) RecvCommand() (protocol.Command, error) {
	_, b, err := c.conn.ReadMessage()
	if err != nil {
		return protocol.Command{}, fmt.Errorf("transport: read message: %w", err)
	}
	return protocol.Decode(b)
}

// Close closes the underlying connection.
func (c *Channel) Close() error {
	return c.conn.Close()
}

// Dial connects to a Test Runner listening at url (e.g.
// "ws://127.0.0.1:9090/ts").
func Dial(ctx context.Context, url string) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	return NewChannel(conn), nil
}

// Server accepts exactly one party connection per path ("/ts" or
// "/sut"), mirroring the Test Runner's one-TS/one-SUT topology.
type Server struct {
	listener  net.Listener
	serverCh  chan *websocket.Conn
	sutCh     chan *websocket.Conn
}

// NewServer constructs a Server; call Start to begin listening.
func NewServer() *Server {
	return &Server{
		serverCh: make(chan *websocket.Conn, 1),
		sutCh:    make(chan *websocket.Conn, 1),
	}
}

// Start listens on addr (e.g. "127.0.0.1:9090") and begins routing
// upgrades for "/ts" and "/sut".
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/ts", s.handleUpgrade(s.serverCh))
	mux.HandleFunc("/sut", s.handleUpgrade(s.sutCh))

	go func() {
		_ = http.Serve(listener, mux)
	}()
	return nil
}

func (s *Server) handleUpgrade(dst chan *websocket.Conn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case dst <- conn:
		default:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected"))
			conn.Close()
		}
	}
}

// Addr returns the bound listen address, valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// WaitForTestServer blocks until the TS party connects.
func (s *Server) WaitForTestServer(ctx context.Context) (*Channel, error) {
	return s.waitFor(ctx, s.serverCh)
}

// WaitForSUT blocks until the SUT party connects.
func (s *Server) WaitForSUT(ctx context.Context) (*Channel, error) {
	return s.waitFor(ctx, s.sutCh)
}

func (s *Server) waitFor(ctx context.Context, ch chan *websocket.Conn) (*Channel, error) {
	select {
	case conn := <-ch:
		return NewChannel(conn), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
