package catalogue

import "fmt"

// Validate reports the same malformed-entry class the original loader
// tolerated: a case with no name, a non-positive id, or no body commands
// at all (both the TS and the SUT body queues empty).
func (c Case) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("catalogue: case %d has an empty name", c.ID)
	}
	if c.ID <= 0 {
		return fmt.Errorf("catalogue: case %q has a non-positive id %d", c.Name, c.ID)
	}
	if len(c.TSBody) == 0 && len(c.SUTBody) == 0 {
		return fmt.Errorf("catalogue: case %q (id %d) has no body commands", c.Name, c.ID)
	}
	return nil
}
