//go:build !linux || baremetal

package internal

import (
	"errors"
	"time"
)

// RawSocket is unimplemented outside Linux: raw IPPROTO_TCP sockets and
// SO_BINDTODEVICE are Linux-specific facilities.
type RawSocket struct{}

func NewRawSocket(ifaceName string) (*RawSocket, error) {
	return nil, errors.ErrUnsupported
}

func (r *RawSocket) IncludeIPHeader(include bool) error { return errors.ErrUnsupported }
func (r *RawSocket) Read(b []byte) (int, error)         { return -1, errors.ErrUnsupported }
func (r *RawSocket) Write(b []byte) (int, error)        { return -1, errors.ErrUnsupported }
func (r *RawSocket) Close() error                       { return errors.ErrUnsupported }
func (r *RawSocket) SetReadTimeout(d time.Duration) error { return errors.ErrUnsupported }
func (r *RawSocket) Name() string                       { return "" }
