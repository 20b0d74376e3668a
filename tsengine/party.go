// Package tsengine implements the Test Server: a scripted TCP peer that
// crafts and sniffs raw TCP/IPv4 segments rather than using the host
// kernel's TCP state machine, per the engine described in
// tcpTester/testServer.py.
package tsengine

import (
	"net/netip"
	"sync"

	"github.com/soypat/tcptester/wire"
)

// unsetSeq mirrors the Python engine's self.ack == -1 sentinel for "no
// prior knowledge of the peer's sequence space yet".
const unsetSeq int64 = -1

// Party tracks the TS's view of one TCP connection's sequence space. The
// background sniffer and the foreground command handler both touch it, so
// every field is guarded by mu (per the design note requiring the sniffer
// to take the lock before mutating).
type Party struct {
	mu sync.Mutex

	seq int64 // wire.SeqNum as int64, zero until the first Reset.
	ack int64 // unsetSeq means "no prior knowledge of peer's sequence space".

	peerIP netip.Addr
	sport  uint16
	dport  uint16
	state  wire.State
}

// Reset clears connection-specific state and reseeds the initial send
// sequence number, exactly as a fresh test case expects: no earlier
// failure leaks into the next one.
func (p *Party) Reset(iss wire.SeqNum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq = int64(iss)
	p.ack = unsetSeq
	p.sport = 0
	p.dport = 0
	p.peerIP = netip.Addr{}
	p.state = wire.StateClosed
}

func (p *Party) setListening(sport uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sport = sport
	p.state = wire.StateListen
}

func (p *Party) setPeer(peerIP netip.Addr, dport uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.peerIP = peerIP
	p.dport = dport
}

func (p *Party) setState(s wire.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// Snapshot is a point-in-time, lock-free copy of Party's fields for packet
// construction and display.
type Snapshot struct {
	Seq    int64
	Ack    int64
	PeerIP netip.Addr
	Sport  uint16
	Dport  uint16
	State  wire.State
}

func (p *Party) snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Seq:    p.seq,
		Ack:    p.ack,
		PeerIP: p.peerIP,
		Sport:  p.sport,
		Dport:  p.dport,
		State:  p.state,
	}
}

// updateSeqAfterSend advances seq by the sent segment's length.
func (p *Party) updateSeqAfterSend(length uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq += int64(length)
}

// updateAckAfterRecv sets ack to the first octet past the received segment.
func (p *Party) updateAckAfterRecv(seq wire.SeqNum, length uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ack = int64(seq.Add(length))
}

// packetLength is the sequence-space length of a segment: payload bytes
// plus one for each of S and F flags set.
func packetLength(flags wire.Flags, payloadLen int) uint32 {
	n := uint32(payloadLen)
	if flags.HasAny(wire.FlagSYN) {
		n++
	}
	if flags.HasAny(wire.FlagFIN) {
		n++
	}
	return n
}
