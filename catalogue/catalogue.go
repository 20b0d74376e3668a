// Package catalogue holds the discoverable set of test cases: pairs of
// (TS-queue, SUT-queue) command scripts, grounded in
// tcpTester/testCaseLoader.py and tcpTester/baseTestCase.py.
package catalogue

import (
	"sort"

	"github.com/soypat/tcptester/protocol"
)

// Case is one conformance scenario: a human-readable name, a numeric id
// used for ordering, and four command queues. Running a case drives the
// two setup queues first; only on success are the two body queues driven.
type Case struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	TSSetup  []protocol.Command `json:"ts_setup,omitempty"`
	SUTSetup []protocol.Command `json:"sut_setup,omitempty"`

	TSBody  []protocol.Command `json:"ts_body"`
	SUTBody []protocol.Command `json:"sut_body"`
}

// Catalogue is an ordered list of cases sorted by ID ascending, matching
// the loader's discovery contract. Cases sharing an ID are all kept.
type Catalogue struct {
	cases []Case
}

// New builds a Catalogue from cases, sorting by ID and dropping any entry
// that fails Validate rather than aborting construction: one malformed
// case should never take down the rest of the suite.
func New(cases ...Case) (*Catalogue, []error) {
	var errs []error
	var kept []Case
	for _, c := range cases {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		kept = append(kept, c)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].ID < kept[j].ID })
	return &Catalogue{cases: kept}, errs
}

// Cases returns the catalogue's cases in ascending ID order.
func (c *Catalogue) Cases() []Case { return c.cases }

// Len reports the number of loaded cases.
func (c *Catalogue) Len() int { return len(c.cases) }
