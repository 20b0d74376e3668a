package transport

import (
	"errors"

	"github.com/soypat/tcptester/protocol"
)

// errClosed is returned by a LocalChannel end whose peer has gone away.
var errClosed = errors.New("transport: local channel closed")

// LocalChannel is an in-process, Channel-shaped duplex pipe: two ends
// produced by NewLocalPair satisfy the same SendCommand/RecvCommand
// contract as a websocket-backed Channel, letting a demo or test run the
// Test Runner, Test Server, and SUT adapter in one process without a real
// network transport, per §1's "any reliable framed duplex channel works."
type LocalChannel struct {
	send chan protocol.Command
	recv chan protocol.Command
}

// NewLocalPair returns two connected ends: whatever a is sent, b receives,
// and vice versa.
func NewLocalPair() (a, b *LocalChannel) {
	c1 := make(chan protocol.Command, 8)
	c2 := make(chan protocol.Command, 8)
	a = &LocalChannel{send: c1, recv: c2}
	b = &LocalChannel{send: c2, recv: c1}
	return a, b
}

// SendCommand enqueues cmd for the peer end.
func (l *LocalChannel) SendCommand(cmd protocol.Command) error {
	l.send <- cmd
	return nil
}

// RecvCommand blocks for the next command the peer end sent.
func (l *LocalChannel) RecvCommand() (protocol.Command, error) {
	cmd, ok := <-l.recv
	if !ok {
		return protocol.Command{}, errClosed
	}
	return cmd, nil
}

// Close closes this end's send side, causing the peer's next RecvCommand
// to fail.
func (l *LocalChannel) Close() error {
	close(l.send)
	return nil
}
