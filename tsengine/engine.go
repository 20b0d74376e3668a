package tsengine

import (
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/wire"
)

// UserError marks a protocol-invariant failure (flag mismatch, seq/ack
// out of window, payload mismatch, receive timeout): reported as
// RESULT.status=1, never retried within a test case.
type UserError struct{ msg string }

func (e *UserError) Error() string { return e.msg }

func userErrorf(format string, args ...any) error {
	return &UserError{msg: fmt.Sprintf(format, args...)}
}

// rawIO is the raw socket surface the engine depends on.
type rawIO interface {
	rawReader
	IncludeIPHeader(include bool) error
	Write(b []byte) (int, error)
	Close() error
}

// Engine is the Test Server: it owns one raw socket bound to a configured
// interface, a background sniffer, and the sequence-space state of the
// current connection.
type Engine struct {
	log    internal.Logger
	raw    rawIO
	party  Party
	snif   *sniffer
	localIP netip.Addr
	ipID   uint16
	rngSeed uint32
}

// NewEngine constructs a TS engine bound to iface, reporting localIP as its
// own address when building outgoing segments.
func NewEngine(iface string, localIP netip.Addr, log internal.Logger) (*Engine, error) {
	raw, err := internal.NewRawSocket(iface)
	if err != nil {
		return nil, fmt.Errorf("tsengine: open raw socket on %s: %w", iface, err)
	}
	if err := raw.IncludeIPHeader(true); err != nil {
		raw.Close()
		return nil, fmt.Errorf("tsengine: enable IP_HDRINCL: %w", err)
	}
	e := &Engine{
		log:     log,
		raw:     raw,
		localIP: localIP,
		rngSeed: 0x2545F491,
	}
	e.snif = newSniffer(raw, log)
	go e.snif.run(&e.party)
	return e, nil
}

// Close stops the background sniffer and releases the raw socket.
func (e *Engine) Close() error {
	e.snif.Stop()
	return e.raw.Close()
}

// nextISN generates an initial sequence number in [3e6, 6e6), matching the
// original engine's randint(3000000, 5999999) range via a xorshift PRNG
// seeded from the engine's running state instead of a global RNG.
func (e *Engine) nextISN() wire.SeqNum {
	e.rngSeed = internal.Prand32(e.rngSeed)
	const lo, span = 3_000_000, 3_000_000
	return wire.SeqNum(lo + e.rngSeed%span)
}

func (e *Engine) nextIPID() uint16 {
	e.ipID++
	return e.ipID
}

// reset clears connection state and reseeds seq. It cannot fail, so the
// dispatch layer has no reset error to swallow.
func (e *Engine) reset() {
	e.party.Reset(e.nextISN())
}

func (e *Engine) send(seg wire.Segment, payload []byte, updateSeq bool) error {
	snap := e.party.snapshot()
	buf, err := buildPacket(e.localIP, snap.PeerIP, snap.Sport, snap.Dport, seg, payload, e.nextIPID())
	if err != nil {
		return err
	}
	e.log.Debug("send", slog.String("seg", seg.String()))
	if _, err := e.raw.Write(buf); err != nil {
		return fmt.Errorf("tsengine: write segment: %w", err)
	}
	if updateSeq {
		e.party.updateSeqAfterSend(packetLength(seg.Flags, len(payload)))
	}
	return nil
}

// recv sniffs for one segment matching every flag in expFlags, validating
// seq/ack against the party's tracked state. ack == -1 (fresh connection)
// suppresses both checks. RST segments bypass seq/ack validation per the
// expected-flag-contains-RST rule.
func (e *Engine) recv(expFlags wire.Flags, timeout time.Duration, updateAck bool) (capturedSegment, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return capturedSegment{}, userErrorf("receive timeout waiting for flags %s", expFlags)
		}
		select {
		case cap := <-e.snif.out:
			if !cap.seg.Flags.HasAll(expFlags) {
				continue
			}
			if err := e.validate(cap.seg, expFlags); err != nil {
				return capturedSegment{}, err
			}
			if updateAck {
				e.party.updateAckAfterRecv(cap.seg.Seq, packetLength(cap.seg.Flags, len(cap.payload)))
			}
			return cap, nil
		case <-time.After(remaining):
			return capturedSegment{}, userErrorf("receive timeout waiting for flags %s", expFlags)
		}
	}
}

func (e *Engine) validate(seg wire.Segment, expFlags wire.Flags) error {
	if expFlags.HasAny(wire.FlagRST) {
		return nil
	}
	snap := e.party.snapshot()
	if snap.Ack == unsetSeq {
		return nil
	}
	ack := wire.SeqNum(snap.Ack)
	if seg.Seq.After(ack) {
		return userErrorf("received future packet with seq %d != %d", seg.Seq, ack)
	}
	if seg.Seq.Before(ack) {
		length := packetLength(seg.Flags, int(seg.DataLen))
		if seg.Seq.Add(length) == ack {
			return nil // duplicate, accepted without updating ack.
		}
		return userErrorf("received past packet with seq %d != %d", seg.Seq, ack)
	}
	seqVal := wire.SeqNum(snap.Seq)
	if seg.Ack.After(seqVal) {
		return userErrorf("received packet with future ack %d != %d", seg.Ack, seqVal)
	}
	if seg.Ack.Before(seqVal) {
		return userErrorf("received packet with past ack %d != %d", seg.Ack, seqVal)
	}
	return nil
}

// sr sends pkt then waits for the first matching reply, composing send and
// recv atomically from the caller's point of view.
func (e *Engine) sr(seg wire.Segment, payload []byte, expFlags wire.Flags, timeout time.Duration, updateSeq, updateAck bool) (capturedSegment, error) {
	if err := e.send(seg, payload, updateSeq); err != nil {
		return capturedSegment{}, err
	}
	cap, err := e.recv(expFlags, timeout, updateAck)
	if err != nil {
		return capturedSegment{}, userErrorf("got no response to packet: %v", err)
	}
	return cap, nil
}

// makePacket fills in omitted seq/ack/flags from the party's current
// tracked state, matching the "explicit | inherit" resolution called for
// by the optional-parameters design note.
func (e *Engine) makePacket(payload []byte, seq, ack *uint32, flags wire.Flags) wire.Segment {
	snap := e.party.snapshot()
	s := wire.SeqNum(snap.Seq)
	if seq != nil {
		s = wire.SeqNum(*seq)
	}
	a := wire.SeqNum(0)
	if snap.Ack != unsetSeq {
		a = wire.SeqNum(snap.Ack)
	}
	if ack != nil {
		a = wire.SeqNum(*ack)
	}
	return wire.Segment{
		Seq:     s,
		Ack:     a,
		DataLen: uint32(len(payload)),
		Window:  1000,
		Flags:   flags,
	}
}
