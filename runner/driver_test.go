package runner

import (
	"testing"
	"time"

	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/protocol"
)

// fakeChannel answers SendCommand/RecvCommand pairs via handler, standing
// in for a *transport.Channel in driver tests.
type fakeChannel struct {
	handler func(protocol.Command) protocol.Command
	last    protocol.Command
	sent    []protocol.Command
}

func (f *fakeChannel) SendCommand(c protocol.Command) error {
	f.last = c
	f.sent = append(f.sent, c)
	return nil
}

func (f *fakeChannel) RecvCommand() (protocol.Command, error) {
	return f.handler(f.last), nil
}

func okResult(c protocol.Command) protocol.Command {
	return protocol.NewResult(c.TestID, c.Kind, protocol.StatusOK, "ok", "")
}

func TestDriver_runsFIFOAndSucceeds(t *testing.T) {
	ch := &fakeChannel{handler: okResult}
	d := NewDriver("ts", ch, newBarrierSet(), make(chan struct{}), internal.NewLogger(nil))

	queue := []protocol.Command{
		{TestID: 1, Kind: protocol.CmdListen, Params: protocol.Params{Listen: &protocol.ListenParams{SrcPort: 9000}}},
		{TestID: 1, Kind: protocol.CmdConnect, Params: protocol.Params{Connect: &protocol.ConnectParams{DstPort: 9001}}},
	}
	res, err := d.Run(queue)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Commands) != 2 || len(res.Results) != 2 {
		t.Fatalf("expected 2 commands/results recorded, got %d/%d", len(res.Commands), len(res.Results))
	}
	if d.State() != StateDone {
		t.Errorf("state = %s, want DONE", d.State())
	}
}

func TestDriver_nonZeroStatusFailsCase(t *testing.T) {
	ch := &fakeChannel{handler: func(c protocol.Command) protocol.Command {
		return protocol.NewResult(c.TestID, c.Kind, protocol.StatusUserError, "", "boom")
	}}
	d := NewDriver("ts", ch, newBarrierSet(), make(chan struct{}), internal.NewLogger(nil))
	queue := []protocol.Command{
		{TestID: 1, Kind: protocol.CmdSend, Params: protocol.Params{Send: &protocol.SendParams{}}},
	}
	_, err := d.Run(queue)
	if err == nil {
		t.Fatalf("expected a non-OK result to fail the driver run")
	}
	if d.State() != StateFailed {
		t.Errorf("state = %s, want FAILED", d.State())
	}
}

func TestDriver_syncBarrierReleasesBothSides(t *testing.T) {
	barriers := newBarrierSet()
	abort := make(chan struct{})

	d1 := NewDriver("ts", &fakeChannel{handler: okResult}, barriers, abort, internal.NewLogger(nil))
	d2 := NewDriver("sut", &fakeChannel{handler: okResult}, barriers, abort, internal.NewLogger(nil))

	syncCmd := protocol.Command{TestID: 1, Kind: protocol.CmdSync, Params: protocol.Params{
		Sync: &protocol.SyncParams{SyncID: 1, WaitForResult: true},
	}}

	done := make(chan error, 2)
	go func() { _, err := d1.Run([]protocol.Command{syncCmd}); done <- err }()
	go func() { _, err := d2.Run([]protocol.Command{syncCmd}); done <- err }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("sync run returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("both sides did not release from the shared barrier within 2s")
		}
	}
}

func TestDriver_waitSleepsLocally(t *testing.T) {
	ch := &fakeChannel{handler: okResult}
	d := NewDriver("ts", ch, newBarrierSet(), make(chan struct{}), internal.NewLogger(nil))
	start := time.Now()
	_, err := d.Run([]protocol.Command{
		{TestID: 1, Kind: protocol.CmdWait, Params: protocol.Params{Wait: &protocol.WaitParams{Seconds: 0}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("a zero-second WAIT should not meaningfully block")
	}
}

func TestDriver_abortStopsMidQueue(t *testing.T) {
	ch := &fakeChannel{handler: okResult}
	abort := make(chan struct{})
	close(abort)
	d := NewDriver("ts", ch, newBarrierSet(), abort, internal.NewLogger(nil))
	_, err := d.Run([]protocol.Command{
		{TestID: 1, Kind: protocol.CmdSend, Params: protocol.Params{Send: &protocol.SendParams{}}},
	})
	if err == nil {
		t.Fatalf("expected a pre-closed abort channel to stop the driver immediately")
	}
}
