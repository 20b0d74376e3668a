package tsengine

import (
	"fmt"
	"net/netip"

	"github.com/soypat/tcptester/wire"
)

// capturedSegment is one sniffed TCP/IPv4 datagram, reduced to the fields
// the command handlers need.
type capturedSegment struct {
	srcIP   netip.Addr
	srcPort uint16
	dstPort uint16
	seg     wire.Segment
	payload []byte
}

// buildPacket marshals an IPv4 datagram carrying the given TCP segment and
// payload, ready to hand to a raw socket configured with IncludeIPHeader.
func buildPacket(localIP, remoteIP netip.Addr, localPort, remotePort uint16, seg wire.Segment, payload []byte, ipID uint16) ([]byte, error) {
	if !localIP.Is4() || !remoteIP.Is4() {
		return nil, fmt.Errorf("tsengine: only IPv4 addresses supported")
	}
	const ipHeaderLen = 20
	const tcpHeaderLen = 20
	buf := make([]byte, ipHeaderLen+tcpHeaderLen+len(payload))

	ipfrm, err := wire.NewIPv4Frame(buf[:ipHeaderLen])
	if err != nil {
		return nil, err
	}
	ipfrm.ClearHeader()
	ipfrm.SetVersionAndIHL(4, 5)
	ipfrm.SetTotalLength(uint16(len(buf)))
	ipfrm.SetID(ipID)
	ipfrm.SetTTL(64)
	ipfrm.SetProtocol(wire.IPProtoTCP)
	*ipfrm.SourceAddr() = localIP.As4()
	*ipfrm.DestinationAddr() = remoteIP.As4()
	ipfrm.SetCRC(ipfrm.CalculateHeaderCRC())

	tfrm, err := wire.NewFrame(buf[ipHeaderLen:])
	if err != nil {
		return nil, err
	}
	tfrm.ClearHeader()
	tfrm.SetSourcePort(localPort)
	tfrm.SetDestinationPort(remotePort)
	tfrm.SetSegment(seg, 5)
	tfrm.SetWindowSize(seg.Window)
	copy(tfrm.Payload(), payload)

	var crc wire.CRC791
	ipfrm.CRCWriteTCPPseudo(&crc)
	sum := crc.PayloadSum16(buf[ipHeaderLen:])
	tfrm.SetCRC(wire.NeverZeroChecksum(sum))

	return buf, nil
}

// parsePacket unmarshals a raw IPv4 datagram into a capturedSegment, or
// returns an error/false if it isn't a well-formed TCP-over-IPv4 datagram.
func parsePacket(buf []byte) (capturedSegment, bool) {
	ipfrm, err := wire.NewIPv4Frame(buf)
	if err != nil || ipfrm.ValidateExceptCRC() != nil {
		return capturedSegment{}, false
	}
	if ipfrm.Protocol() != wire.IPProtoTCP {
		return capturedSegment{}, false
	}
	payload := ipfrm.Payload()
	tfrm, err := wire.NewFrame(payload)
	if err != nil || tfrm.ValidateExceptCRC() != nil {
		return capturedSegment{}, false
	}
	src := ipfrm.SourceAddr()
	tcpPayload := tfrm.Payload()
	seg := tfrm.Segment(len(tcpPayload))
	return capturedSegment{
		srcIP:   netip.AddrFrom4(*src),
		srcPort: tfrm.SourcePort(),
		dstPort: tfrm.DestinationPort(),
		seg:     seg,
		payload: tcpPayload,
	}, true
}
