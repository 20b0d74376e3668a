package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode serialises cmd to its wire form: a JSON object carrying test_id,
// kind, and the populated params field. One possible concrete encoding
// among several that would satisfy the round-trip law; this module commits
// to JSON because nothing else in the dependency stack reaches for a
// binary codec for small tagged structs like this one.
func Encode(cmd Command) ([]byte, error) {
	return json.Marshal(cmd)
}

// Decode parses b into a Command, validating that the populated Params
// field actually matches Kind.
func Decode(b []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(b, &cmd); err != nil {
		return Command{}, fmt.Errorf("protocol: decode command: %w", err)
	}
	if err := validateKind(cmd); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

func validateKind(cmd Command) error {
	p := cmd.Params
	present := 0
	var match bool
	check := func(kind CommandKind, ok bool) {
		if ok {
			present++
			if kind == cmd.Kind {
				match = true
			}
		}
	}
	check(CmdSend, p.Send != nil)
	check(CmdReceive, p.Receive != nil)
	check(CmdSendReceive, p.SendReceive != nil)
	check(CmdConnect, p.Connect != nil)
	check(CmdListen, p.Listen != nil)
	check(CmdDisconnect, p.Disconnect != nil)
	check(CmdResult, p.Result != nil)
	check(CmdSync, p.Sync != nil)
	check(CmdWait, p.Wait != nil)

	if present > 1 {
		return fmt.Errorf("protocol: command has %d populated params fields, want at most 1", present)
	}
	if present == 1 && !match {
		return fmt.Errorf("protocol: command kind %s does not match its populated params field", cmd.Kind)
	}
	if present == 0 && cmd.Kind != CmdAbort {
		return fmt.Errorf("protocol: command kind %s requires a params field", cmd.Kind)
	}
	return nil
}
