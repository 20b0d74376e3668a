// Package protocol defines the Command/Params data model exchanged between
// the Test Runner and each party over a command channel, and its wire
// codec.
package protocol

import "fmt"

// CommandKind discriminates the Params carried by a Command.
type CommandKind uint8

const (
	CmdSend CommandKind = iota
	CmdReceive
	CmdSendReceive
	CmdConnect
	CmdListen
	CmdDisconnect
	CmdAbort
	CmdResult
	CmdSync
	CmdWait
)

func (k CommandKind) String() string {
	switch k {
	case CmdSend:
		return "SEND"
	case CmdReceive:
		return "RECEIVE"
	case CmdSendReceive:
		return "SENDRECEIVE"
	case CmdConnect:
		return "CONNECT"
	case CmdListen:
		return "LISTEN"
	case CmdDisconnect:
		return "DISCONNECT"
	case CmdAbort:
		return "ABORT"
	case CmdResult:
		return "RESULT"
	case CmdSync:
		return "SYNC"
	case CmdWait:
		return "WAIT"
	default:
		return fmt.Sprintf("CommandKind(%d)", uint8(k))
	}
}

// DefaultTimeoutSeconds is the fallback receive timeout when a command
// doesn't specify one.
const DefaultTimeoutSeconds = 20

// Params is the sum type of all command parameter shapes. Exactly one
// field is populated, matching Kind; the rest are nil. This mirrors the
// tagged-union dispatch called for by the command's dynamic dispatch on
// kind, made explicit and exhaustive instead of relying on a dynamic type
// switch over an interface.
type Params struct {
	Send        *SendParams        `json:"send,omitempty"`
	Receive     *ReceiveParams     `json:"receive,omitempty"`
	SendReceive *SendReceiveParams `json:"send_receive,omitempty"`
	Connect     *ConnectParams     `json:"connect,omitempty"`
	Listen      *ListenParams      `json:"listen,omitempty"`
	Disconnect  *DisconnectParams  `json:"disconnect,omitempty"`
	Result      *ResultParams      `json:"result,omitempty"`
	Sync        *SyncParams        `json:"sync,omitempty"`
	Wait        *WaitParams        `json:"wait,omitempty"`
}

// SendParams describes an outgoing TS segment or SUT write.
type SendParams struct {
	Payload       []byte  `json:"payload,omitempty"`
	SequenceNum   *uint32 `json:"sequence_number,omitempty"`
	AcknowledgeNum *uint32 `json:"acknowledgement_number,omitempty"`
	Flags         string  `json:"flags,omitempty"`
	UpdateSeq     bool    `json:"update_ts_seq"`
}

// ReceiveParams describes an expected inbound segment or SUT read.
type ReceiveParams struct {
	TimeoutSeconds int    `json:"timeout"`
	Payload        []byte `json:"payload,omitempty"`
	Flags          string `json:"flags,omitempty"`
	UpdateAck      bool   `json:"update_ts_ack"`
}

// SendReceiveParams composes a send immediately followed by a receive,
// evaluated atomically against the TS engine's sr primitive.
type SendReceiveParams struct {
	Send    SendParams    `json:"send_parameters"`
	Receive ReceiveParams `json:"receive_parameters"`
}

// ConnectParams requests an active open. ExpectedFailure marks a case
// where the handshake is expected not to complete cleanly (timeout or an
// RST reply), used by scenarios that connect to a closed port: the TS
// treats either outcome as success rather than a user error.
type ConnectParams struct {
	Destination     string `json:"destination"`
	DstPort         uint16 `json:"dst_port"`
	SrcPort         uint16 `json:"src_port"`
	FullHandshake   bool   `json:"full_handshake"`
	ExpectedFailure bool   `json:"expected_failure,omitempty"`
}

// ListenParams requests a passive open.
type ListenParams struct {
	Interface string `json:"interface"`
	SrcPort   uint16 `json:"src_port"`
}

// DisconnectParams requests connection teardown.
type DisconnectParams struct {
	HalfClose bool `json:"half_close"`
}

// ResultParams is the outcome of a previously issued command.
type ResultParams struct {
	Status       int         `json:"status"`
	Operation    CommandKind `json:"operation"`
	Description  string      `json:"description,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// Result status codes.
const (
	StatusOK           = 0
	StatusUserError    = 1
	StatusInternalError = 2
)

// SyncParams is a cross-party barrier.
type SyncParams struct {
	SyncID        int  `json:"sync_id"`
	WaitForResult bool `json:"wait_for_result"`
}

// WaitParams is a local sleep, scoped to the issuing driver only.
type WaitParams struct {
	Seconds int `json:"seconds"`
}

// Command is one instruction exchanged between the Test Runner and a
// party, tagged with the test case it belongs to so either side can detect
// a stale exchange after a test-id change and reset accordingly.
type Command struct {
	TestID int         `json:"test_id"`
	Kind   CommandKind `json:"kind"`
	Params Params      `json:"params"`
}

// NewResult builds a RESULT command answering the command of kind op.
func NewResult(testID int, op CommandKind, status int, description, errMsg string) Command {
	return Command{
		TestID: testID,
		Kind:   CmdResult,
		Params: Params{Result: &ResultParams{
			Status:       status,
			Operation:    op,
			Description:  description,
			ErrorMessage: errMsg,
		}},
	}
}
