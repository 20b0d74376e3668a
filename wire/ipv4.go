package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const sizeHeaderIPv4 = 20

// IPProtoTCP is the IPv4 protocol number for TCP.
const IPProtoTCP = 6

// Field byte offsets within a fixed (option-free) IPv4 header, per RFC 791
// figure 1. Fixed by the standard, not a design choice of this package.
const (
	offVersionIHL  = 0
	offTotalLength = 2
	offID          = 4
	offTTL         = 8
	offProtocol    = 9
	offCRC         = 10
	offSourceAddr  = 12
	offDestAddr    = 16
)

// IPv4Frame is a buffer-backed accessor for an IPv4 header, mutating the
// underlying bytes in place.
type IPv4Frame struct {
	buf []byte
}

// NewIPv4Frame wraps buf as an IPv4 frame. buf must be at least 20 bytes.
func NewIPv4Frame(buf []byte) (IPv4Frame, error) {
	if len(buf) < sizeHeaderIPv4 {
		return IPv4Frame{}, ErrShortBuffer
	}
	return IPv4Frame{buf: buf}, nil
}

// RawData returns the frame's backing buffer.
func (f IPv4Frame) RawData() []byte { return f.buf }

func (f IPv4Frame) u16(off int) uint16       { return binary.BigEndian.Uint16(f.buf[off:]) }
func (f IPv4Frame) setU16(off int, v uint16) { binary.BigEndian.PutUint16(f.buf[off:], v) }

func (f IPv4Frame) ihl() uint8     { return f.buf[offVersionIHL] & 0xf }
func (f IPv4Frame) version() uint8 { return f.buf[offVersionIHL] >> 4 }

// HeaderLength returns the header length in bytes, as derived from IHL.
func (f IPv4Frame) HeaderLength() int { return int(f.ihl()) * 4 }

// SetVersionAndIHL sets the version (always 4) and header-length fields.
func (f IPv4Frame) SetVersionAndIHL(version, ihl uint8) {
	f.buf[offVersionIHL] = version<<4 | ihl&0xf
}

func (f IPv4Frame) TotalLength() uint16     { return f.u16(offTotalLength) }
func (f IPv4Frame) SetTotalLength(v uint16) { f.setU16(offTotalLength, v) }
func (f IPv4Frame) ID() uint16              { return f.u16(offID) }
func (f IPv4Frame) SetID(v uint16)          { f.setU16(offID, v) }
func (f IPv4Frame) TTL() uint8              { return f.buf[offTTL] }
func (f IPv4Frame) SetTTL(v uint8)          { f.buf[offTTL] = v }
func (f IPv4Frame) Protocol() uint8         { return f.buf[offProtocol] }
func (f IPv4Frame) SetProtocol(v uint8)     { f.buf[offProtocol] = v }
func (f IPv4Frame) CRC() uint16             { return f.u16(offCRC) }
func (f IPv4Frame) SetCRC(v uint16)         { f.setU16(offCRC, v) }

// CalculateHeaderCRC computes the IPv4 header checksum over the current
// header bytes, treating the CRC field itself as zero. The two Write calls
// below split the header at the CRC field rather than zeroing it first;
// the split point (byte 10) is fixed by RFC 791's header layout.
func (f IPv4Frame) CalculateHeaderCRC() uint16 {
	var crc CRC791
	crc.Write(f.buf[:offCRC])
	crc.Write(f.buf[offSourceAddr:sizeHeaderIPv4])
	return crc.Sum16()
}

// CRCWriteTCPPseudo feeds the TCP pseudo-header (source/destination
// address, segment length, protocol number) into crc ahead of the TCP
// segment bytes themselves. Field order is fixed by RFC 793's
// pseudo-header definition.
func (f IPv4Frame) CRCWriteTCPPseudo(crc *CRC791) {
	crc.Write(f.SourceAddr()[:])
	crc.Write(f.DestinationAddr()[:])
	crc.AddUint16(f.TotalLength() - uint16(f.HeaderLength()))
	crc.AddUint16(uint16(f.Protocol()))
}

// SourceAddr returns a pointer to the 4-byte source address field.
func (f IPv4Frame) SourceAddr() *[4]byte { return (*[4]byte)(f.buf[offSourceAddr : offSourceAddr+4]) }

// DestinationAddr returns a pointer to the 4-byte destination address field.
func (f IPv4Frame) DestinationAddr() *[4]byte { return (*[4]byte)(f.buf[offDestAddr : offDestAddr+4]) }

// Payload returns the IPv4 payload (the enclosed TCP segment bytes).
func (f IPv4Frame) Payload() []byte {
	off := f.HeaderLength()
	tl := int(f.TotalLength())
	if tl > len(f.buf) {
		tl = len(f.buf)
	}
	return f.buf[off:tl]
}

// ClearHeader zeros the fixed (non-option) header bytes.
func (f IPv4Frame) ClearHeader() {
	clear(f.buf[:sizeHeaderIPv4])
}

// ValidateSize checks the header and total-length fields against the buffer.
func (f IPv4Frame) ValidateSize() error {
	ihl := f.ihl()
	tl := f.TotalLength()
	switch {
	case tl < sizeHeaderIPv4:
		return errors.New("wire: ipv4 total length below header size")
	case int(tl) > len(f.buf):
		return fmt.Errorf("wire: ipv4 total length %d exceeds buffer size %d", tl, len(f.buf))
	case ihl < 5:
		return errors.New("wire: ipv4 IHL below minimum of 5")
	}
	return nil
}

// ValidateExceptCRC validates size and version fields, skipping checksum.
func (f IPv4Frame) ValidateExceptCRC() error {
	if err := f.ValidateSize(); err != nil {
		return err
	}
	if f.version() != 4 {
		return errors.New("wire: bad IPv4 version field")
	}
	return nil
}

func (f IPv4Frame) String() string {
	src, dst := f.SourceAddr(), f.DestinationAddr()
	return fmt.Sprintf("IPv4 %d.%d.%d.%d -> %d.%d.%d.%d proto=%d",
		src[0], src[1], src[2], src[3], dst[0], dst[1], dst[2], dst[3], f.Protocol())
}
