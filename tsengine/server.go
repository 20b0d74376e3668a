package tsengine

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

// Server drives one Engine from a command channel: it dispatches incoming
// commands to the matching handler and answers with a RESULT, resetting
// the engine whenever the incoming test_id changes from the previous
// command's.
type Server struct {
	engine *Engine
	log    internal.Logger
	testID int
	first  bool
}

// NewServer wraps engine for command dispatch.
func NewServer(engine *Engine, log internal.Logger) *Server {
	return &Server{engine: engine, log: log, first: true}
}

// Serve loops RecvCommand/dispatch/SendCommand until ch returns an error,
// which it returns to the caller (a transport error per the error-handling
// design: the TR sets the finish flag and the run ends with status=2).
func (s *Server) Serve(ch channel) error {
	for {
		cmd, err := ch.RecvCommand()
		if err != nil {
			return err
		}
		if s.first || cmd.TestID != s.testID {
			s.first = false
			s.testID = cmd.TestID
			s.engine.reset()
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
		return s.engine.HandleListen(p.Listen)
	case protocol.CmdConnect:
		return s.engine.HandleConnect(p.Connect)
	case protocol.CmdDisconnect:
		return s.engine.HandleDisconnect(p.Disconnect)
	case protocol.CmdAbort:
		return s.engine.HandleAbort()
	case protocol.CmdSend:
		return s.engine.HandleSend(p.Send)
	case protocol.CmdReceive:
		return s.engine.HandleReceive(p.Receive)
	case protocol.CmdSendReceive:
		return s.engine.HandleSendReceive(p.SendReceive)
	default:
		return "", userErrorf("test server does not handle command kind %s", cmd.Kind)
	}
}
