package wire_test

import (
	"testing"

	"github.com/soypat/tcptester/wire"
)

func TestSeqNum_wraparound(t *testing.T) {
	// RFC 1982 style serial number comparison: a packet whose ack sits just
	// below 2**32 registers as "past" when self.seq is a small number near
	// zero, because the wraparound distance is negative.
	tests := []struct {
		name       string
		a, b       wire.SeqNum
		wantAfter  bool
		wantBefore bool
	}{
		{"equal", 100, 100, false, false},
		{"simple ahead", 101, 100, true, false},
		{"simple behind", 99, 100, false, true},
		{"wraps past", 4294967196, 3000, false, true},
		{"wraps future", 3000, 4294967196, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.After(tt.b); got != tt.wantAfter {
				t.Errorf("After() = %v, want %v", got, tt.wantAfter)
			}
			if got := tt.a.Before(tt.b); got != tt.wantBefore {
				t.Errorf("Before() = %v, want %v", got, tt.wantBefore)
			}
		})
	}
}

func TestSegment_Len(t *testing.T) {
	tests := []struct {
		name string
		seg  wire.Segment
		want uint32
	}{
		{"bare ack no payload", wire.Segment{Flags: wire.FlagACK}, 0},
		{"syn consumes one", wire.Segment{Flags: wire.FlagSYN}, 1},
		{"fin consumes one", wire.Segment{Flags: wire.FlagFIN | wire.FlagACK}, 1},
		{"payload plus syn", wire.Segment{Flags: wire.FlagSYN, DataLen: 4}, 5},
		{"payload only", wire.Segment{Flags: wire.FlagPSH | wire.FlagACK, DataLen: 100}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.seg.Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFrame_roundtrip(t *testing.T) {
	buf := make([]byte, 20)
	frm, err := wire.NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	frm.SetSourcePort(1234)
	frm.SetDestinationPort(80)
	frm.SetSegment(wire.Segment{Seq: 100, Ack: 200, Window: 1000, Flags: wire.FlagSYN | wire.FlagACK}, 5)

	if frm.SourcePort() != 1234 || frm.DestinationPort() != 80 {
		t.Fatal("port roundtrip failed")
	}
	if frm.Seq() != 100 || frm.Ack() != 200 {
		t.Fatal("seq/ack roundtrip failed")
	}
	_, flags := frm.OffsetAndFlags()
	if flags != wire.FlagSYN|wire.FlagACK {
		t.Fatalf("flags roundtrip failed: got %s", flags)
	}
	if err := frm.ValidateExceptCRC(); err != nil {
		t.Fatal(err)
	}
}

func TestFrame_shortBuffer(t *testing.T) {
	if _, err := wire.NewFrame(make([]byte, 10)); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestFlags_String(t *testing.T) {
	tests := []struct {
		f    wire.Flags
		want string
	}{
		{0, "[]"},
		{wire.FlagSYN, "[SYN]"},
		{wire.FlagSYN | wire.FlagACK, "[SYN,ACK]"},
		{wire.FlagFIN | wire.FlagACK, "[FIN,ACK]"},
		{wire.FlagRST, "[RST]"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("Flags(%d).String() = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestCRC791_zeroPad(t *testing.T) {
	var crc wire.CRC791
	even := crc.PayloadSum16([]byte{0x12, 0x34})
	crc.Reset()
	odd := crc.PayloadSum16([]byte{0x12, 0x34, 0x00})
	if even != odd {
		t.Fatalf("odd-length payload should zero-pad to match even case: %x != %x", even, odd)
	}
}

func TestNeverZeroChecksum(t *testing.T) {
	if wire.NeverZeroChecksum(0) != 0xffff {
		t.Fatal("zero checksum should map to 0xffff")
	}
	if wire.NeverZeroChecksum(0x1234) != 0x1234 {
		t.Fatal("non-zero checksum should be unchanged")
	}
}
