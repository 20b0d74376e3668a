//go:build linux && !baremetal

package internal

import (
	"fmt"
	"syscall"
	"time"
)

// RawSocket is a raw IPv4/TCP socket bound to a single named network
// interface. Binding to an existing interface (rather than creating a
// virtual TUN/TAP device) lets a process sniff and inject TCP segments
// addressed to it without the host kernel's own TCP stack intercepting
// them first, provided the caller has arranged firewall rules (e.g. an
// iptables DROP on outgoing RST) to keep the kernel from interfering.
type RawSocket struct {
	fd   int
	name string
}

// NewRawSocket opens an AF_INET/SOCK_RAW/IPPROTO_TCP socket and binds it to
// the interface named ifaceName via SO_BINDTODEVICE.
func NewRawSocket(ifaceName string) (*RawSocket, error) {
	if len(ifaceName) >= syscall.IFNAMSIZ {
		return nil, fmt.Errorf("interface name too large: %q", ifaceName)
	}
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("opening raw tcp socket: %w", err)
	}
	if err := syscall.SetsockoptString(fd, syscall.SOL_SOCKET, syscall.SO_BINDTODEVICE, ifaceName); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("binding to device %q: %w", ifaceName, err)
	}
	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, 1<<20); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("setting receive buffer: %w", err)
	}
	return &RawSocket{fd: fd, name: ifaceName}, nil
}

// IncludeIPHeader toggles IP_HDRINCL so Write must supply the IPv4 header
// itself (required to control fields like the identification field or TTL
// when crafting deliberately non-conformant segments).
func (r *RawSocket) IncludeIPHeader(include bool) error {
	v := 0
	if include {
		v = 1
	}
	return syscall.SetsockoptInt(r.fd, syscall.IPPROTO_IP, syscall.IP_HDRINCL, v)
}

// Read reads one IPv4 datagram (including its IP header) into b.
func (r *RawSocket) Read(b []byte) (int, error) {
	return syscall.Read(r.fd, b)
}

// Write writes one IPv4 datagram. With IncludeIPHeader(true) b must start
// with a complete IPv4 header; otherwise the kernel fills it in.
func (r *RawSocket) Write(b []byte) (int, error) {
	return syscall.Write(r.fd, b)
}

// Close releases the underlying file descriptor.
func (r *RawSocket) Close() error {
	return syscall.Close(r.fd)
}

// SetReadTimeout arranges for Read to return a timeout error after d,
// expressed via SO_RCVTIMEO so Read can be used in a polling loop.
func (r *RawSocket) SetReadTimeout(d time.Duration) error {
	tv := syscall.NsecToTimeval(d.Nanoseconds())
	return syscall.SetsockoptTimeval(r.fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv)
}

// Name returns the bound interface name.
func (r *RawSocket) Name() string { return r.name }
