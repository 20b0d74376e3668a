package tsengine

import (
	"net/netip"
	"testing"
	"time"

	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/wire"
)

// fakeRaw is a Write-capturing stand-in for *internal.RawSocket whose Read
// always times out, letting Engine tests run without a kernel socket.
type fakeRaw struct {
	written [][]byte
}

func (f *fakeRaw) Read(b []byte) (int, error)            { return 0, errTimeout }
func (f *fakeRaw) SetReadTimeout(d time.Duration) error   { return nil }
func (f *fakeRaw) IncludeIPHeader(include bool) error     { return nil }
func (f *fakeRaw) Close() error                           { return nil }
func (f *fakeRaw) Write(b []byte) (int, error) {
	cp := make([]byte, len(b))
	copy(cp, b)
	f.written = append(f.written, cp)
	return len(b), nil
}

func newTestEngine() (*Engine, *fakeRaw) {
	raw := &fakeRaw{}
	e := &Engine{
		log:     internal.NewLogger(nil),
		raw:     raw,
		localIP: netip.MustParseAddr("10.0.0.1"),
		rngSeed: 0x2545F491,
		snif:    newSniffer(raw, internal.NewLogger(nil)),
	}
	return e, raw
}

func TestBuildParsePacket_roundtrip(t *testing.T) {
	local := netip.MustParseAddr("192.168.1.10")
	remote := netip.MustParseAddr("192.168.1.20")
	seg := wire.Segment{
		Seq:     1000,
		Ack:     2000,
		DataLen: 5,
		Window:  1024,
		Flags:   wire.FlagPSH | wire.FlagACK,
	}
	buf, err := buildPacket(local, remote, 4000, 80, seg, []byte("hello"), 42)
	if err != nil {
		t.Fatalf("buildPacket: %v", err)
	}
	cap, ok := parsePacket(buf)
	if !ok {
		t.Fatalf("parsePacket failed to parse built packet")
	}
	if cap.srcIP != local {
		t.Errorf("srcIP = %s, want %s", cap.srcIP, local)
	}
	if cap.srcPort != 4000 || cap.dstPort != 80 {
		t.Errorf("ports = %d/%d, want 4000/80", cap.srcPort, cap.dstPort)
	}
	if cap.seg.Seq != 1000 || cap.seg.Ack != 2000 {
		t.Errorf("seq/ack = %d/%d, want 1000/2000", cap.seg.Seq, cap.seg.Ack)
	}
	if !cap.seg.Flags.HasAll(wire.FlagPSH | wire.FlagACK) {
		t.Errorf("flags = %s, want PA", cap.seg.Flags)
	}
	if string(cap.payload) != "hello" {
		t.Errorf("payload = %q, want %q", cap.payload, "hello")
	}
}

func TestParsePacket_rejectsGarbage(t *testing.T) {
	if _, ok := parsePacket([]byte{1, 2, 3}); ok {
		t.Fatalf("parsePacket accepted a short garbage buffer")
	}
}

func TestParseFormatFlags_roundtrip(t *testing.T) {
	cases := []string{"", "S", "SA", "FA", "PA", "R", "FPA"}
	for _, c := range cases {
		f, err := parseFlags(c)
		if err != nil {
			t.Fatalf("parseFlags(%q): %v", c, err)
		}
		got := formatFlags(f)
		f2, err := parseFlags(got)
		if err != nil {
			t.Fatalf("parseFlags(formatFlags(%q)=%q): %v", c, got, err)
		}
		if f2 != f {
			t.Errorf("flags not stable across round-trip: %q -> %s -> %q -> %s", c, f, got, f2)
		}
	}
}

func TestParseFlags_unknownChar(t *testing.T) {
	if _, err := parseFlags("SX"); err == nil {
		t.Fatalf("parseFlags(\"SX\") should have failed on unknown char")
	}
}

func TestParty_updateSeqAfterSend(t *testing.T) {
	var p Party
	p.Reset(100)
	p.updateSeqAfterSend(packetLength(wire.FlagSYN, 0))
	if got := p.snapshot().Seq; got != 101 {
		t.Errorf("seq after SYN send = %d, want 101", got)
	}
}

func TestParty_updateAckAfterRecv(t *testing.T) {
	var p Party
	p.Reset(100)
	p.updateAckAfterRecv(500, packetLength(0, 10))
	if got := p.snapshot().Ack; got != 510 {
		t.Errorf("ack after recv = %d, want 510", got)
	}
}

// TestEngine_validate_wraparound reproduces the scenario where an ack of
// 4294967196 must register as "past" relative to a self.seq sitting in the
// low thousands, per the wraparound comparison spelled out for test 12.
func TestEngine_validate_wraparound(t *testing.T) {
	e, _ := newTestEngine()
	e.party.Reset(1000)
	e.party.seq = 1000
	e.party.ack = int64(wire.SeqNum(1000))

	seg := wire.Segment{Seq: wire.SeqNum(1000), Ack: wire.SeqNum(4294967196), Flags: wire.FlagACK}
	err := e.validate(seg, wire.FlagACK)
	if err == nil {
		t.Fatalf("expected validate to reject an ack far in the past, got nil error")
	}
}

func TestEngine_validate_acceptsFreshConnection(t *testing.T) {
	e, _ := newTestEngine()
	e.party.Reset(1000)
	// ack unset (fresh connection): no validation should be applied.
	seg := wire.Segment{Seq: wire.SeqNum(999999), Ack: wire.SeqNum(123456), Flags: wire.FlagSYN | wire.FlagACK}
	if err := e.validate(seg, wire.FlagSYN|wire.FlagACK); err != nil {
		t.Fatalf("validate on fresh connection returned error: %v", err)
	}
}

func TestEngine_validate_rstBypassesChecks(t *testing.T) {
	e, _ := newTestEngine()
	e.party.Reset(1000)
	e.party.ack = int64(wire.SeqNum(1000))
	seg := wire.Segment{Seq: wire.SeqNum(99), Ack: wire.SeqNum(99), Flags: wire.FlagRST}
	if err := e.validate(seg, wire.FlagRST); err != nil {
		t.Fatalf("validate rejected an RST segment: %v", err)
	}
}

func TestEngine_validate_futureSeqRejected(t *testing.T) {
	e, _ := newTestEngine()
	e.party.Reset(1000)
	e.party.seq = 1000
	e.party.ack = int64(wire.SeqNum(1000))
	seg := wire.Segment{Seq: wire.SeqNum(2000), Ack: wire.SeqNum(1000), Flags: wire.FlagACK}
	if err := e.validate(seg, wire.FlagACK); err == nil {
		t.Fatalf("expected validate to reject a future seq")
	}
}

func TestEngine_validate_duplicateAccepted(t *testing.T) {
	e, _ := newTestEngine()
	e.party.Reset(1000)
	e.party.seq = 1000
	e.party.ack = int64(wire.SeqNum(1000))
	// A retransmit of the already-acked 10 bytes ending exactly at ack.
	seg := wire.Segment{Seq: wire.SeqNum(990), Ack: wire.SeqNum(1000), DataLen: 10, Flags: wire.FlagACK}
	if err := e.validate(seg, wire.FlagACK); err != nil {
		t.Fatalf("validate rejected a duplicate segment: %v", err)
	}
}

func TestEngine_send_updatesSeq(t *testing.T) {
	e, raw := newTestEngine()
	e.party.Reset(1000)
	e.party.setListening(4000)
	e.party.setPeer(netip.MustParseAddr("10.0.0.2"), 80)

	seg := e.makePacket([]byte("hi"), nil, nil, wire.FlagPSH|wire.FlagACK)
	if err := e.send(seg, []byte("hi"), true); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(raw.written) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(raw.written))
	}
	if got := e.party.snapshot().Seq; got != 1002 {
		t.Errorf("seq after 2-byte send = %d, want 1002", got)
	}
}

func TestEngine_makePacket_defaultsFromParty(t *testing.T) {
	e, _ := newTestEngine()
	e.party.Reset(500)
	e.party.ack = 700

	seg := e.makePacket(nil, nil, nil, wire.FlagACK)
	if seg.Seq != 500 {
		t.Errorf("seq defaulted to %d, want 500", seg.Seq)
	}
	if seg.Ack != 700 {
		t.Errorf("ack defaulted to %d, want 700", seg.Ack)
	}

	explicitSeq := uint32(42)
	seg2 := e.makePacket(nil, &explicitSeq, nil, wire.FlagACK)
	if seg2.Seq != 42 {
		t.Errorf("explicit seq override ignored, got %d", seg2.Seq)
	}
}

func TestEngine_recv_timesOutWithoutSegment(t *testing.T) {
	e, _ := newTestEngine()
	e.party.Reset(1000)
	_, err := e.recv(wire.FlagACK, 10*time.Millisecond, false)
	if err == nil {
		t.Fatalf("expected recv to time out with no segment queued")
	}
}

func TestEngine_recv_acceptsQueuedSegment(t *testing.T) {
	e, _ := newTestEngine()
	e.party.Reset(1000)
	e.party.ack = unsetSeq

	e.snif.out <- capturedSegment{
		srcIP:   netip.MustParseAddr("10.0.0.2"),
		srcPort: 80,
		dstPort: 4000,
		seg:     wire.Segment{Seq: 55, Ack: 1000, Flags: wire.FlagSYN | wire.FlagACK},
	}
	cap, err := e.recv(wire.FlagSYN|wire.FlagACK, time.Second, true)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if cap.seg.Seq != 55 {
		t.Errorf("recv returned seq %d, want 55", cap.seg.Seq)
	}
	if got := e.party.snapshot().Ack; got != int64(wire.SeqNum(56)) {
		t.Errorf("ack after recv = %d, want 56", got)
	}
}
