package transport_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/soypat/tcptester/protocol"
	"github.com/soypat/tcptester/transport"
)

func TestChannel_sendRecvRoundtrip(t *testing.T) {
	srv := transport.NewServer()
	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	clientDone := make(chan error, 1)
	var client *transport.Channel
	go func() {
		c, err := transport.Dial(ctx, fmt.Sprintf("ws://%s/ts", srv.Addr()))
		client = c
		clientDone <- err
	}()

	serverSide, err := srv.WaitForTestServer(ctx)
	if err != nil {
		t.Fatalf("WaitForTestServer: %v", err)
	}
	if err := <-clientDone; err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	defer serverSide.Close()

	want := protocol.Command{TestID: 7, Kind: protocol.CmdListen, Params: protocol.Params{
		Listen: &protocol.ListenParams{Interface: "eth0", SrcPort: 5555},
	}}
	if err := client.SendCommand(want); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	got, err := serverSide.RecvCommand()
	if err != nil {
		t.Fatalf("RecvCommand: %v", err)
	}
	if got.TestID != want.TestID || got.Kind != want.Kind || got.Params.Listen == nil {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, want)
	}
	if *got.Params.Listen != *want.Params.Listen {
		t.Fatalf("listen params mismatch: got %+v, want %+v", got.Params.Listen, want.Params.Listen)
	}
}

func TestServer_routesByPath(t *testing.T) {
	srv := transport.NewServer()
	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sutDone := make(chan error, 1)
	go func() {
		_, err := transport.Dial(ctx, fmt.Sprintf("ws://%s/sut", srv.Addr()))
		sutDone <- err
	}()

	if _, err := srv.WaitForSUT(ctx); err != nil {
		t.Fatalf("WaitForSUT: %v", err)
	}
	if err := <-sutDone; err != nil {
		t.Fatalf("Dial /sut: %v", err)
	}
}
