package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortBuffer is returned when a buffer is too small to hold a header.
var ErrShortBuffer = errors.New("wire: short buffer")

const sizeHeaderTCP = 20

// SeqNum is a TCP sequence or acknowledgment number. Arithmetic and
// ordering on SeqNum wrap at 2**32 per RFC 793/9293 serial number rules:
// "greater than" means ahead in the sequence space by less than half the
// space, not greater as a plain uint32.
type SeqNum uint32

// Add returns s+delta, wrapping at 2**32.
func (s SeqNum) Add(delta uint32) SeqNum { return s + SeqNum(delta) }

// Sub returns the signed distance s-other in sequence space, positive when
// s is ahead of other.
func (s SeqNum) Sub(other SeqNum) int32 { return int32(s - other) }

// After reports whether s is strictly ahead of other in sequence space.
func (s SeqNum) After(other SeqNum) bool { return s.Sub(other) > 0 }

// Before reports whether s is strictly behind other in sequence space.
func (s SeqNum) Before(other SeqNum) bool { return s.Sub(other) < 0 }

// Flags is the set of TCP control bits in the header, as a bitmask.
type Flags uint16

const (
	FlagFIN Flags = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
	FlagURG
	FlagECE
	FlagCWR
	FlagNS
)

const flagMask = 0x01ff

// flagNames is indexed by bit position (FlagFIN is bit 0, FlagNS is bit 8),
// used by AppendFormat to turn a bitmask into its set-bit names.
var flagNames = [...]string{"FIN", "SYN", "RST", "PSH", "ACK", "URG", "ECE", "CWR", "NS"}

// HasAll reports whether every bit in mask is set in flags.
func (f Flags) HasAll(mask Flags) bool { return f&mask == mask }

// HasAny reports whether any bit in mask is set in flags.
func (f Flags) HasAny(mask Flags) bool { return f&mask != 0 }

// Mask clears non-flag bits.
func (f Flags) Mask() Flags { return f & flagMask }

func (f Flags) String() string {
	return "[" + string(f.AppendFormat(nil)) + "]"
}

// AppendFormat appends a comma-separated, human readable flag list to b.
func (f Flags) AppendFormat(b []byte) []byte {
	first := true
	for i, name := range flagNames {
		if f&(1<<i) == 0 {
			continue
		}
		if !first {
			b = append(b, ',')
		}
		first = false
		b = append(b, name...)
	}
	return b
}

// Segment is the sequence-space view of a TCP packet: header fields that
// participate in sequence arithmetic plus payload length, detached from the
// bytes that carry them on the wire.
type Segment struct {
	Seq     SeqNum
	Ack     SeqNum
	DataLen uint32 // payload octets, not counting SYN/FIN.
	Window  uint16
	Flags   Flags
}

// Len returns the segment length in the sequence-number space: payload
// bytes plus one for each of SYN and FIN (matching the TCP sequence-space
// rule: both flags consume one sequence number).
func (seg Segment) Len() uint32 {
	n := seg.DataLen
	if seg.Flags.HasAny(FlagSYN) {
		n++
	}
	if seg.Flags.HasAny(FlagFIN) {
		n++
	}
	return n
}

// Last returns the sequence number of the last octet of the segment.
func (seg Segment) Last() SeqNum {
	n := seg.Len()
	if n == 0 {
		return seg.Seq
	}
	return seg.Seq.Add(n - 1)
}

func (seg Segment) String() string {
	return fmt.Sprintf("<SEQ=%d><ACK=%d><LEN=%d>%s", seg.Seq, seg.Ack, seg.Len(), seg.Flags.String())
}

// Frame is a buffer-backed accessor for a TCP header and payload, mutating
// the underlying bytes in place. The zero value is not usable; construct
// with NewFrame.
type Frame struct {
	buf []byte
}

// NewFrame wraps buf as a TCP frame. buf must be at least 20 bytes (the
// fixed TCP header size); callers needing options/payload access should
// call ValidateSize before using them.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeaderTCP {
		return Frame{}, ErrShortBuffer
	}
	return Frame{buf: buf}, nil
}

// Field byte offsets within a fixed (option-free) TCP header, per RFC 793
// figure 3. Fixed by the standard, not a design choice of this package.
const (
	offSourcePort      = 0
	offDestinationPort = 2
	offSeq             = 4
	offAck             = 8
	offOffsetFlags     = 12
	offWindowSize      = 14
	offTCPCRC          = 16
	offUrgentPtr       = 18
)

// RawData returns the frame's backing buffer.
func (f Frame) RawData() []byte { return f.buf }

func (f Frame) u16(off int) uint16       { return binary.BigEndian.Uint16(f.buf[off:]) }
func (f Frame) setU16(off int, v uint16) { binary.BigEndian.PutUint16(f.buf[off:], v) }
func (f Frame) u32(off int) uint32       { return binary.BigEndian.Uint32(f.buf[off:]) }
func (f Frame) setU32(off int, v uint32) { binary.BigEndian.PutUint32(f.buf[off:], v) }

func (f Frame) SourcePort() uint16          { return f.u16(offSourcePort) }
func (f Frame) SetSourcePort(v uint16)      { f.setU16(offSourcePort, v) }
func (f Frame) DestinationPort() uint16     { return f.u16(offDestinationPort) }
func (f Frame) SetDestinationPort(v uint16) { f.setU16(offDestinationPort, v) }

// Seq returns the sequence number of the first octet of this segment.
func (f Frame) Seq() SeqNum     { return SeqNum(f.u32(offSeq)) }
func (f Frame) SetSeq(v SeqNum) { f.setU32(offSeq, uint32(v)) }

// Ack returns the next sequence number the sender expects to receive.
func (f Frame) Ack() SeqNum     { return SeqNum(f.u32(offAck)) }
func (f Frame) SetAck(v SeqNum) { f.setU32(offAck, uint32(v)) }

// OffsetAndFlags returns the data-offset (in 32-bit words) and control flags.
func (f Frame) OffsetAndFlags() (offset uint8, flags Flags) {
	v := f.u16(offOffsetFlags)
	return uint8(v >> 12), Flags(v).Mask()
}

func (f Frame) SetOffsetAndFlags(offset uint8, flags Flags) {
	f.setU16(offOffsetFlags, uint16(offset)<<12|uint16(flags.Mask()))
}

// HeaderLength returns the header length in bytes, including options.
func (f Frame) HeaderLength() int {
	offset, _ := f.OffsetAndFlags()
	return 4 * int(offset)
}

func (f Frame) WindowSize() uint16     { return f.u16(offWindowSize) }
func (f Frame) SetWindowSize(v uint16) { f.setU16(offWindowSize, v) }
func (f Frame) CRC() uint16            { return f.u16(offTCPCRC) }
func (f Frame) SetCRC(v uint16)        { f.setU16(offTCPCRC, v) }
func (f Frame) UrgentPtr() uint16      { return f.u16(offUrgentPtr) }
func (f Frame) SetUrgentPtr(v uint16)  { f.setU16(offUrgentPtr, v) }

// Payload returns the TCP payload (excludes options). Call ValidateSize
// first to avoid an out-of-range panic on a malformed header.
func (f Frame) Payload() []byte { return f.buf[f.HeaderLength():] }

// Options returns the TCP options portion of the header, zero length if none.
func (f Frame) Options() []byte { return f.buf[sizeHeaderTCP:f.HeaderLength()] }

// Segment reduces the frame to its Segment view, given the payload size.
func (f Frame) Segment(payloadSize int) Segment {
	_, flags := f.OffsetAndFlags()
	return Segment{
		Seq:     f.Seq(),
		Ack:     f.Ack(),
		Window:  f.WindowSize(),
		DataLen: uint32(payloadSize),
		Flags:   flags,
	}
}

// SetSegment writes seg's sequence-space fields into the frame header.
// offset is the header length in 32-bit words (minimum 5, no options).
func (f Frame) SetSegment(seg Segment, offset uint8) {
	f.SetSeq(seg.Seq)
	f.SetAck(seg.Ack)
	f.SetOffsetAndFlags(offset, seg.Flags)
	f.SetWindowSize(seg.Window)
}

// ClearHeader zeros the fixed (non-option) header bytes.
func (f Frame) ClearHeader() {
	clear(f.buf[:sizeHeaderTCP])
}

func (f Frame) String() string {
	seg := f.Segment(len(f.Payload()))
	return fmt.Sprintf("TCP :%d -> :%d %s", f.SourcePort(), f.DestinationPort(), seg.String())
}

// ValidateSize checks the header-length field against the buffer size.
func (f Frame) ValidateSize() error {
	off := f.HeaderLength()
	if off < sizeHeaderTCP {
		return fmt.Errorf("wire: tcp header offset %d below minimum %d", off, sizeHeaderTCP)
	}
	if off > len(f.buf) {
		return fmt.Errorf("wire: tcp header offset %d exceeds buffer size %d", off, len(f.buf))
	}
	return nil
}

// ValidateExceptCRC validates size and non-zero port fields, skipping the
// checksum (computing it requires the enclosing IPv4 pseudo-header).
func (f Frame) ValidateExceptCRC() error {
	if err := f.ValidateSize(); err != nil {
		return err
	}
	if f.DestinationPort() == 0 {
		return errors.New("wire: tcp zero destination port")
	}
	if f.SourcePort() == 0 {
		return errors.New("wire: tcp zero source port")
	}
	return nil
}
