package transport

import (
	"testing"

	"github.com/soypat/tcptester/protocol"
)

func TestLocalPair_roundtrip(t *testing.T) {
	a, b := NewLocalPair()
	want := protocol.Command{TestID: 7, Kind: protocol.CmdAbort}
	if err := a.SendCommand(want); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	got, err := b.RecvCommand()
	if err != nil {
		t.Fatalf("RecvCommand: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	reply := protocol.NewResult(7, protocol.CmdAbort, protocol.StatusOK, "done", "")
	if err := b.SendCommand(reply); err != nil {
		t.Fatalf("SendCommand reply: %v", err)
	}
	got2, err := a.RecvCommand()
	if err != nil {
		t.Fatalf("RecvCommand reply: %v", err)
	}
	if got2.Kind != protocol.CmdResult {
		t.Errorf("reply kind = %s, want RESULT", got2.Kind)
	}
}
