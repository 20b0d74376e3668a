// Package wire implements the on-the-wire TCP and IPv4 segment encodings
// used to craft and parse raw packets, independent of any particular TCB
// or socket implementation.
package wire

// CRC791 accumulates the ones'-complement checksum defined by RFC 791: the
// algorithm shared by the IPv4 header checksum and the TCP/UDP
// pseudo-header checksum. Every 16-bit big-endian word added folds into a
// 32-bit accumulator; Sum16 folds the carry bits back in and complements
// the result. The fold-and-complement step is fixed by the RFC; how words
// get into the accumulator is not, so this walks raw bytes directly rather
// than going through encoding/binary.
//
// The zero value is ready to use.
type CRC791 struct {
	acc uint32
}

// Write adds every word in buf to the running sum. A trailing odd byte is
// treated as the high byte of a zero-padded word per RFC 791, so callers
// never need to pad buf themselves.
func (c *CRC791) Write(buf []byte) {
	c.acc = addWords(c.acc, buf)
}

// AddUint16 adds one big-endian word to the running sum.
func (c *CRC791) AddUint16(v uint16) { c.acc += uint32(v) }

// AddUint32 adds a big-endian 32-bit value to the running sum as its two
// constituent words.
func (c *CRC791) AddUint32(v uint32) { c.acc += uint32(v>>16) + uint32(uint16(v)) }

// Sum16 folds and complements everything added so far.
func (c *CRC791) Sum16() uint16 { return fold(c.acc) }

// PayloadSum16 returns the checksum of buf added to a copy of the running
// sum, leaving the receiver unmodified so the same accumulated prefix (e.g.
// a pseudo-header) can be checked against several candidate payloads.
func (c *CRC791) PayloadSum16(buf []byte) uint16 { return fold(addWords(c.acc, buf)) }

// Reset clears the accumulator.
func (c *CRC791) Reset() { c.acc = 0 }

// addWords folds every big-endian word in buf into acc and returns the
// result, treating a trailing odd byte as a zero-padded word.
func addWords(acc uint32, buf []byte) uint32 {
	evenLen := len(buf) &^ 1
	for i := 0; i < evenLen; i += 2 {
		acc += uint32(buf[i])<<8 | uint32(buf[i+1])
	}
	if evenLen != len(buf) {
		acc += uint32(buf[evenLen]) << 8
	}
	return acc
}

// fold reduces a 32-bit running sum to the final 16-bit ones'-complement
// checksum. Two rounds suffice: acc never exceeds 17 carry bits for any
// header or payload length this engine ever sums.
func fold(acc uint32) uint16 {
	acc = (acc & 0xffff) + acc>>16
	return ^uint16(acc + acc>>16)
}

// NeverZeroChecksum maps a zero checksum to the equivalent ones'-complement
// all-ones value, since a wire checksum of 0x0000 conventionally means "no
// checksum present".
func NeverZeroChecksum(sum16 uint16) uint16 {
	if sum16 == 0 {
		return 0xffff
	}
	return sum16
}
