package catalogue

import (
	"bytes"

	"github.com/soypat/tcptester/protocol"
)

// Builtin ports, matching the fixed port numbers used throughout the
// original test case definitions (tcpTester/testCases/test1.py and
// neighbours each hardcode a PORT_TS/PORT_SUT pair per case to avoid
// cross-case port reuse).
const (
	portTS1, portSUT1 = 9001, 10001
	portTS2, portSUT2 = 9002, 10002
	portTS3, portSUT3 = 9003, 10003
	portTS4, portSUT4 = 9004, 10004
	portTS5, portSUT5 = 9005, 10005
	portTS6, portSUT6 = 9006, 10006
)

var payloadX100 = bytes.Repeat([]byte("x"), 100)

func u32(v uint32) *uint32 { return &v }

func cmd(testID int, kind protocol.CommandKind, p protocol.Params) protocol.Command {
	return protocol.Command{TestID: testID, Kind: kind, Params: p}
}

func sync(testID, id int, waitForResult bool) protocol.Command {
	return cmd(testID, protocol.CmdSync, protocol.Params{
		Sync: &protocol.SyncParams{SyncID: id, WaitForResult: waitForResult},
	})
}

// Builtin returns the catalogue's six end-to-end scenarios, each grounded
// directly in the scenario described by the same number in §8 of the
// conformance notes: passive establishment, invalid-ack rejection,
// simultaneous open, data transfer, duplicate-segment tolerance, and a
// graceful close initiated by the SUT.
func Builtin() []Case {
	return []Case{
		passiveEstablishment(),
		invalidAckRejection(),
		simultaneousOpen(),
		dataTransfer(),
		duplicateSegment(),
		gracefulCloseBySUT(),
	}
}

func passiveEstablishment() Case {
	const id = 1
	return Case{
		ID:   id,
		Name: "Connection establishment with passive host",
		TSBody: []protocol.Command{
			cmd(id, protocol.CmdListen, protocol.Params{
				Listen: &protocol.ListenParams{SrcPort: portTS1},
			}),
			sync(id, 1, false),
			sync(id, 2, true),
		},
		SUTBody: []protocol.Command{
			sync(id, 1, false),
			cmd(id, protocol.CmdConnect, protocol.Params{
				Connect: &protocol.ConnectParams{DstPort: portTS1, SrcPort: portSUT1, FullHandshake: true},
			}),
			sync(id, 2, true),
		},
	}
}

func invalidAckRejection() Case {
	const id = 2
	return Case{
		ID:   id,
		Name: "Invalid ACK rejection",
		TSBody: []protocol.Command{
			cmd(id, protocol.CmdListen, protocol.Params{
				Listen: &protocol.ListenParams{SrcPort: portTS2},
			}),
			sync(id, 1, false),
			cmd(id, protocol.CmdSendReceive, protocol.Params{
				SendReceive: &protocol.SendReceiveParams{
					Send:    protocol.SendParams{Flags: "SA", AcknowledgeNum: u32(543)},
					Receive: protocol.ReceiveParams{Flags: "R", TimeoutSeconds: 20},
				},
			}),
			sync(id, 2, true),
		},
		SUTBody: []protocol.Command{
			sync(id, 1, false),
			cmd(id, protocol.CmdConnect, protocol.Params{
				Connect: &protocol.ConnectParams{DstPort: portTS2, SrcPort: portSUT2},
			}),
			sync(id, 2, true),
		},
	}
}

func simultaneousOpen() Case {
	const id = 3
	return Case{
		ID:   id,
		Name: "Simultaneous open",
		TSBody: []protocol.Command{
			cmd(id, protocol.CmdConnect, protocol.Params{
				Connect: &protocol.ConnectParams{DstPort: portSUT3, SrcPort: portTS3, FullHandshake: true},
			}),
			sync(id, 1, true),
		},
		SUTBody: []protocol.Command{
			cmd(id, protocol.CmdConnect, protocol.Params{
				Connect: &protocol.ConnectParams{DstPort: portTS3, SrcPort: portSUT3},
			}),
			sync(id, 1, true),
		},
	}
}

func dataTransfer() Case {
	const id = 4
	payload300 := bytes.Repeat(payloadX100, 3)
	return Case{
		ID:   id,
		Name: "Data transfer",
		TSSetup: []protocol.Command{
			cmd(id, protocol.CmdListen, protocol.Params{Listen: &protocol.ListenParams{SrcPort: portTS4}}),
			sync(id, 1, false),
			sync(id, 2, true),
		},
		SUTSetup: []protocol.Command{
			sync(id, 1, false),
			cmd(id, protocol.CmdConnect, protocol.Params{
				Connect: &protocol.ConnectParams{DstPort: portTS4, SrcPort: portSUT4, FullHandshake: true},
			}),
			sync(id, 2, true),
		},
		TSBody: []protocol.Command{
			cmd(id, protocol.CmdSend, protocol.Params{Send: &protocol.SendParams{Payload: payloadX100, Flags: "A", UpdateSeq: true}}),
			cmd(id, protocol.CmdSend, protocol.Params{Send: &protocol.SendParams{Payload: payloadX100, Flags: "A", UpdateSeq: true}}),
			cmd(id, protocol.CmdSend, protocol.Params{Send: &protocol.SendParams{Payload: payloadX100, Flags: "A", UpdateSeq: true}}),
			sync(id, 3, true),
		},
		SUTBody: []protocol.Command{
			cmd(id, protocol.CmdReceive, protocol.Params{Receive: &protocol.ReceiveParams{TimeoutSeconds: 20, Payload: payload300}}),
			sync(id, 3, true),
		},
	}
}

func duplicateSegment() Case {
	const id = 5
	return Case{
		ID:   id,
		Name: "Duplicate segment tolerance",
		TSSetup: []protocol.Command{
			cmd(id, protocol.CmdListen, protocol.Params{Listen: &protocol.ListenParams{SrcPort: portTS5}}),
			sync(id, 1, false),
			sync(id, 2, true),
		},
		SUTSetup: []protocol.Command{
			sync(id, 1, false),
			cmd(id, protocol.CmdConnect, protocol.Params{
				Connect: &protocol.ConnectParams{DstPort: portTS5, SrcPort: portSUT5, FullHandshake: true},
			}),
			sync(id, 2, true),
		},
		TSBody: []protocol.Command{
			cmd(id, protocol.CmdSend, protocol.Params{
				Send: &protocol.SendParams{Payload: payloadX100, Flags: "A", UpdateSeq: false},
			}),
			cmd(id, protocol.CmdSendReceive, protocol.Params{
				SendReceive: &protocol.SendReceiveParams{
					Send:    protocol.SendParams{Payload: payloadX100, Flags: "A", UpdateSeq: true},
					Receive: protocol.ReceiveParams{Flags: "A", TimeoutSeconds: 20},
				},
			}),
			sync(id, 3, true),
		},
		SUTBody: []protocol.Command{
			cmd(id, protocol.CmdReceive, protocol.Params{Receive: &protocol.ReceiveParams{TimeoutSeconds: 20, Payload: payloadX100}}),
			cmd(id, protocol.CmdReceive, protocol.Params{Receive: &protocol.ReceiveParams{TimeoutSeconds: 20, Payload: payloadX100}}),
			sync(id, 3, true),
		},
	}
}

func gracefulCloseBySUT() Case {
	const id = 6
	return Case{
		ID:   id,
		Name: "Graceful close initiated by SUT",
		TSSetup: []protocol.Command{
			cmd(id, protocol.CmdListen, protocol.Params{Listen: &protocol.ListenParams{SrcPort: portTS6}}),
			sync(id, 1, false),
			sync(id, 2, true),
		},
		SUTSetup: []protocol.Command{
			sync(id, 1, false),
			cmd(id, protocol.CmdConnect, protocol.Params{
				Connect: &protocol.ConnectParams{DstPort: portTS6, SrcPort: portSUT6, FullHandshake: true},
			}),
			sync(id, 2, true),
		},
		TSBody: []protocol.Command{
			cmd(id, protocol.CmdReceive, protocol.Params{Receive: &protocol.ReceiveParams{Flags: "FA", TimeoutSeconds: 20, UpdateAck: true}}),
			cmd(id, protocol.CmdSend, protocol.Params{Send: &protocol.SendParams{Flags: "A"}}),
			cmd(id, protocol.CmdSendReceive, protocol.Params{
				SendReceive: &protocol.SendReceiveParams{
					Send:    protocol.SendParams{Flags: "FA", UpdateSeq: true},
					Receive: protocol.ReceiveParams{Flags: "A", TimeoutSeconds: 20},
				},
			}),
			sync(id, 3, true),
		},
		SUTBody: []protocol.Command{
			cmd(id, protocol.CmdDisconnect, protocol.Params{Disconnect: &protocol.DisconnectParams{HalfClose: false}}),
			sync(id, 3, true),
		},
	}
}
