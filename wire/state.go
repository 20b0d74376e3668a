package wire

// State enumerates the TS connection states named in the active/passive
// establishment and close state machines. Unlike a full RFC 9293 TCB this
// engine never enters retransmission- or window-management states; it only
// tracks the states a test case can actually observe.
type State uint8

const (
	StateClosed State = iota
	StateListen
	StateSynSent
	StateEstablished
	StateFinWait1
	StateFinWait2
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateListen:
		return "LISTEN"
	case StateSynSent:
		return "SYN_SENT"
	case StateEstablished:
		return "ESTABLISHED"
	case StateFinWait1:
		return "FIN_WAIT1"
	case StateFinWait2:
		return "FIN_WAIT2"
	default:
		return "UNKNOWN"
	}
}
