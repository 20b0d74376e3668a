package sutadapter

import (
	"log/slog"

	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/protocol"
)

// channel is the subset of *transport.Channel the dispatch loop depends on.
type channel interface {
	SendCommand(protocol.Command) error
	RecvCommand() (protocol.Command, error)
}

// Server drives one Adapter from a command channel, resetting it whenever
// the incoming test_id changes from the previous command's.
type Server struct {
	adapter *Adapter
	log     internal.Logger
	testID  int
	first   bool
}

// NewServer wraps adapter for command dispatch.
func NewServer(adapter *Adapter, log internal.Logger) *Server {
	return &Server{adapter: adapter, log: log, first: true}
}

// Serve loops RecvCommand/dispatch/SendCommand until ch returns an error.
func (s *Server) Serve(ch channel) error {
	for {
		cmd, err := ch.RecvCommand()
		if err != nil {
			return err
		}
		if s.first || cmd.TestID != s.testID {
			s.first = false
			s.testID = cmd.TestID
			s.adapter.Reset()
		}
		result := s.dispatch(cmd)
		if err := ch.SendCommand(result); err != nil {
			return err
		}
	}
}

func (s *Server) dispatch(cmd protocol.Command) protocol.Command {
	desc, err := s.handle(cmd)
	if err == nil {
		return protocol.NewResult(cmd.TestID, cmd.Kind, protocol.StatusOK, desc, "")
	}
	status := protocol.StatusInternalError
	if _, ok := err.(*UserError); ok {
		status = protocol.StatusUserError
	}
	s.log.Warn("command failed", slog.String("kind", cmd.Kind.String()), slog.String("err", err.Error()))
	return protocol.NewResult(cmd.TestID, cmd.Kind, status, "", err.Error())
}

func (s *Server) handle(cmd protocol.Command) (string, error) {
	p := cmd.Params
	switch cmd.Kind {
	case protocol.CmdListen:
		return s.adapter.HandleListen(p.Listen)
	case protocol.CmdConnect:
		return s.adapter.HandleConnect(p.Connect)
	case protocol.CmdDisconnect:
		return s.adapter.HandleDisconnect(p.Disconnect)
	case protocol.CmdAbort:
		return s.adapter.HandleAbort()
	case protocol.CmdSend:
		return s.adapter.HandleSend(p.Send)
	case protocol.CmdReceive:
		return s.adapter.HandleReceive(p.Receive)
	default:
		return "", userErrorf("sut does not handle command kind %s", cmd.Kind)
	}
}
