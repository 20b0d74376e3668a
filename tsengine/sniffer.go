package tsengine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/soypat/tcptester/internal"
)

// rawReader is the subset of *internal.RawSocket that the sniffer depends
// on, letting tests substitute an in-memory fake.
type rawReader interface {
	Read(b []byte) (int, error)
	SetReadTimeout(d time.Duration) error
}

// sniffer runs as a background goroutine reading raw datagrams off the
// bound interface, cheaply filtering by destination port (the only
// criterion that's stable across the lifetime of one connection) and
// forwarding candidates to recv, which applies the per-call expected-flags
// filter. This matches the design note calling for a background sniffer
// that takes the party lock only to read sport before forwarding.
type sniffer struct {
	log  internal.Logger
	raw  rawReader
	out  chan capturedSegment
	stop chan struct{}
	done chan struct{}
}

func newSniffer(raw rawReader, log internal.Logger) *sniffer {
	return &sniffer{
		raw:  raw,
		log:  log,
		out:  make(chan capturedSegment, 32),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// run reads datagrams until stop is closed. The party's sport is read per
// packet under the party's own lock (via Party.snapshot) so the sniffer
// never races the command handler's reset.
func (s *sniffer) run(party *Party) {
	defer close(s.done)
	_ = s.raw.SetReadTimeout(200 * time.Millisecond)
	buf := make([]byte, 65536)
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		n, err := s.raw.Read(buf)
		if err != nil {
			if errors.Is(err, errTimeout) || isTimeout(err) {
				continue
			}
			s.log.Debug("sniffer read error", slog.String("err", err.Error()))
			continue
		}
		cap, ok := parsePacket(buf[:n])
		if !ok {
			continue
		}
		snap := party.snapshot()
		if cap.dstPort != snap.Sport {
			continue
		}
		select {
		case s.out <- cap:
		default:
			s.log.Warn("sniffer buffer full, dropping segment")
		}
	}
}

func (s *sniffer) Stop() {
	close(s.stop)
	<-s.done
}

var errTimeout = errors.New("tsengine: read timeout")

type timeouter interface{ Timeout() bool }

func isTimeout(err error) bool {
	var t timeouter
	return errors.As(err, &t) && t.Timeout()
}
