package tsengine

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/soypat/tcptester/protocol"
	"github.com/soypat/tcptester/wire"
)

// HandleListen performs a passive open: resets state, waits for a SYN on
// src_port, and captures the peer's address and port as the connection's
// remote endpoint.
func (e *Engine) HandleListen(p *protocol.ListenParams) (string, error) {
	e.reset()
	e.party.setListening(p.SrcPort)

	cap, err := e.recv(0, 20*time.Second, true)
	if err != nil {
		return "", fmt.Errorf("listen timed out: %w", err)
	}
	if !cap.seg.Flags.HasAll(wire.FlagSYN) {
		return "", userErrorf("invalid flags received: expected SYN got %s", formatFlags(cap.seg.Flags))
	}
	e.party.setPeer(cap.srcIP, cap.srcPort)
	e.party.setState(wire.StateEstablished)
	return fmt.Sprintf("packet received from %s", cap.srcIP), nil
}

// HandleConnect performs an active open. With FullHandshake=false it sends
// only the initial SYN, used to test pre-ESTABLISHED closes.
func (e *Engine) HandleConnect(p *protocol.ConnectParams) (string, error) {
	e.reset()
	peerIP, err := netip.ParseAddr(p.Destination)
	if err != nil {
		return "", userErrorf("invalid destination address %q: %v", p.Destination, err)
	}
	e.party.setPeer(peerIP, p.DstPort)
	e.party.setListening(p.SrcPort)

	syn := e.makePacket(nil, nil, nil, wire.FlagSYN)
	if !p.FullHandshake {
		if err := e.send(syn, nil, true); err != nil {
			return "", err
		}
		return "single syn sent", nil
	}

	cap, err := e.sr(syn, nil, wire.FlagSYN|wire.FlagACK, 20*time.Second, true, true)
	if err != nil {
		if p.ExpectedFailure {
			return fmt.Sprintf("expected failure observed: %v", err), nil
		}
		return "", err
	}
	if p.ExpectedFailure && cap.seg.Flags.HasAny(wire.FlagRST) {
		return fmt.Sprintf("expected failure observed: %s", cap.seg.String()), nil
	}
	ack := e.makePacket(nil, nil, nil, wire.FlagACK)
	if err := e.send(ack, nil, false); err != nil {
		return "", err
	}
	e.party.setState(wire.StateEstablished)
	return fmt.Sprintf("last packet received: %s", cap.seg.String()), nil
}

// HandleDisconnect initiates a graceful close. HalfClose controls whether
// the TS only waits for a plain ACK (leaving its own read side usable) or
// waits for the peer's FIN|ACK and answers with a final ACK.
func (e *Engine) HandleDisconnect(p *protocol.DisconnectParams) (string, error) {
	fin := e.makePacket(nil, nil, nil, wire.FlagFIN|wire.FlagACK)
	if p.HalfClose {
		cap, err := e.sr(fin, nil, wire.FlagACK, 20*time.Second, true, true)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("last packet received: %s", cap.seg.String()), nil
	}

	cap, err := e.sr(fin, nil, wire.FlagFIN|wire.FlagACK, 20*time.Second, true, true)
	if err != nil {
		return "", err
	}
	ack := e.makePacket(nil, nil, nil, wire.FlagACK)
	if err := e.send(ack, nil, false); err != nil {
		return "", err
	}
	return fmt.Sprintf("last packet received: %s", cap.seg.String()), nil
}

// HandleAbort resets connection state without emitting any segment.
func (e *Engine) HandleAbort() (string, error) {
	e.reset()
	return "abort done", nil
}

// HandleSend builds a segment from params, defaulting omitted fields to
// the party's current tracking, and injects it.
func (e *Engine) HandleSend(p *protocol.SendParams) (string, error) {
	flags, err := parseFlags(p.Flags)
	if err != nil {
		return "", err
	}
	seg := e.makePacket(p.Payload, p.SequenceNum, p.AcknowledgeNum, flags)
	if err := e.send(seg, p.Payload, p.UpdateSeq); err != nil {
		return "", err
	}
	return fmt.Sprintf("sent payload: %q", p.Payload), nil
}

// HandleReceive waits for a segment matching params and validates its
// payload, if one was specified.
func (e *Engine) HandleReceive(p *protocol.ReceiveParams) (string, error) {
	flags, err := parseFlags(p.Flags)
	if err != nil {
		return "", err
	}
	timeout := time.Duration(p.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(protocol.DefaultTimeoutSeconds) * time.Second
	}
	cap, err := e.recv(flags, timeout, p.UpdateAck)
	if err != nil {
		return "", userErrorf("timeout reached: %v", err)
	}
	if err := validatePayload(cap.payload, p.Payload); err != nil {
		return "", err
	}
	return fmt.Sprintf("packet received: %s", cap.seg.String()), nil
}

// HandleSendReceive composes a send immediately followed by a receive via
// the sr primitive, validating the received payload.
func (e *Engine) HandleSendReceive(p *protocol.SendReceiveParams) (string, error) {
	sendFlags, err := parseFlags(p.Send.Flags)
	if err != nil {
		return "", err
	}
	recvFlags, err := parseFlags(p.Receive.Flags)
	if err != nil {
		return "", err
	}
	seg := e.makePacket(p.Send.Payload, p.Send.SequenceNum, p.Send.AcknowledgeNum, sendFlags)
	timeout := time.Duration(p.Receive.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(protocol.DefaultTimeoutSeconds) * time.Second
	}
	cap, err := e.sr(seg, p.Send.Payload, recvFlags, timeout, p.Send.UpdateSeq, p.Receive.UpdateAck)
	if err != nil {
		return "", err
	}
	if err := validatePayload(cap.payload, p.Receive.Payload); err != nil {
		return "", err
	}
	return fmt.Sprintf("packet received: %s", cap.seg.String()), nil
}

func validatePayload(got, want []byte) error {
	if len(want) == 0 {
		return nil
	}
	if string(got) != string(want) {
		return userErrorf("invalid data received: %q", got)
	}
	return nil
}
