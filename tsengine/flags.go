package tsengine

import (
	"fmt"

	"github.com/soypat/tcptester/wire"
)

// flagChars matches the scapy-style single-letter flag alphabet used by
// SendParams.Flags/ReceiveParams.Flags ("S", "SA", "FA", ...).
var flagChars = [...]struct {
	ch byte
	f  wire.Flags
}{
	{'F', wire.FlagFIN},
	{'S', wire.FlagSYN},
	{'R', wire.FlagRST},
	{'P', wire.FlagPSH},
	{'A', wire.FlagACK},
	{'U', wire.FlagURG},
	{'E', wire.FlagECE},
	{'C', wire.FlagCWR},
	{'N', wire.FlagNS},
}

// parseFlags converts a flag-letter string (e.g. "SA", "FA") to a Flags
// bitmask. An empty string is the zero value.
func parseFlags(s string) (wire.Flags, error) {
	var out wire.Flags
	for i := 0; i < len(s); i++ {
		found := false
		for _, fc := range flagChars {
			if fc.ch == s[i] {
				out |= fc.f
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("tsengine: unknown flag character %q", s[i])
		}
	}
	return out, nil
}

// formatFlags renders a Flags bitmask back to its letter form.
func formatFlags(f wire.Flags) string {
	b := make([]byte, 0, len(flagChars))
	for _, fc := range flagChars {
		if f.HasAny(fc.f) {
			b = append(b, fc.ch)
		}
	}
	return string(b)
}
