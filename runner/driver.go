package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/protocol"
)

// errAborted is returned by a driver whose run was cut short by the
// global finish flag (the other party failed, or the run is being torn
// down early).
var errAborted = errors.New("runner: aborted")

// errCaseFailed marks a driver that had seen at least one non-OK result
// when it reached a SYNC(wait_for_result=true) or the end of its queue.
var errCaseFailed = errors.New("runner: case failed")

// State is one of the TR driver's lifecycle states.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateSyncWaitResults
	StateSyncWaitPeer
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateSyncWaitResults:
		return "SYNC_WAIT_RESULTS"
	case StateSyncWaitPeer:
		return "SYNC_WAIT_PEER"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// channel is the subset of *transport.Channel each driver needs: one
// request followed by exactly one RESULT, the request/response contract
// the whole protocol is built on.
type channel interface {
	SendCommand(protocol.Command) error
	RecvCommand() (protocol.Command, error)
}

// Driver drives one party's command queue against its transport channel,
// tracking the dual-queue scheduler's FIFO-within-party, sync-id-across-
// parties ordering contract.
type Driver struct {
	Name     string
	ch       channel
	barriers *barrierSet
	abort    <-chan struct{}
	log      internal.Logger

	state State
}

// NewDriver constructs a driver named for logging (e.g. "ts" or "sut").
func NewDriver(name string, ch channel, barriers *barrierSet, abort <-chan struct{}, log internal.Logger) *Driver {
	return &Driver{Name: name, ch: ch, barriers: barriers, abort: abort, log: log, state: StateIdle}
}

// State reports the driver's current lifecycle state.
func (d *Driver) State() State { return d.state }

// Results collects every RESULT a driver observed while running a queue,
// in issue order, for the catalogue runner to summarise.
type Results struct {
	Commands []protocol.Command
	Results  []protocol.ResultParams
}

// Run drains queue head-first. SYNC and WAIT never reach the transport:
// WAIT sleeps locally; SYNC resolves against the shared barrierSet. Every
// other command is sent and its RESULT awaited synchronously, which
// trivially satisfies "must not advance past a SYNC(wait_for_result=true)
// while any previously issued command is unanswered" since nothing is
// ever in flight across a FIFO, request/response channel.
func (d *Driver) Run(queue []protocol.Command) (Results, error) {
	d.state = StateRunning
	var out Results
	failed := false

	for _, c := range queue {
		select {
		case <-d.abort:
			d.state = StateFailed
			return out, errAborted
		default:
		}

		switch c.Kind {
		case protocol.CmdWait:
			if c.Params.Wait != nil && c.Params.Wait.Seconds > 0 {
				time.Sleep(time.Duration(c.Params.Wait.Seconds) * time.Second)
			}

		case protocol.CmdSync:
			sp := c.Params.Sync
			if sp.WaitForResult {
				d.state = StateSyncWaitResults
				if failed {
					d.state = StateFailed
					return out, errCaseFailed
				}
			}
			d.state = StateSyncWaitPeer
			if err := d.barriers.get(sp.SyncID).arrive(d.abort); err != nil {
				d.state = StateFailed
				return out, err
			}
			d.state = StateRunning

		default:
			if err := d.ch.SendCommand(c); err != nil {
				d.state = StateFailed
				return out, fmt.Errorf("runner: %s: send %s: %w", d.Name, c.Kind, err)
			}
			result, err := d.ch.RecvCommand()
			if err != nil {
				d.state = StateFailed
				return out, fmt.Errorf("runner: %s: recv result for %s: %w", d.Name, c.Kind, err)
			}
			rp := result.Params.Result
			out.Commands = append(out.Commands, c)
			if rp != nil {
				out.Results = append(out.Results, *rp)
				if rp.Status != protocol.StatusOK {
					failed = true
					d.log.Warn("command failed",
						slog.String("party", d.Name),
						slog.String("kind", c.Kind.String()),
						slog.Int("status", rp.Status),
						slog.String("error", rp.ErrorMessage))
				}
			}
		}
	}

	if failed {
		d.state = StateFailed
		return out, errCaseFailed
	}
	d.state = StateDone
	return out, nil
}
