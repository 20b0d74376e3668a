// Package runner implements the Test Runner: the dual-queue scheduler that
// drives the TS and SUT drivers in lock-step through cross-party sync
// barriers, grounded in tcpTester/testRunner.py and baseTestCase.py.
package runner

import (
	"errors"
	"fmt"
	"sync"

	"github.com/soypat/tcptester/catalogue"
	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/protocol"
	"github.com/soypat/tcptester/report"
)

// Runner owns the two party channels for one run and drives the
// catalogue's cases against them, one at a time.
type Runner struct {
	tsCh  channel
	sutCh channel
	log   internal.Logger
}

// New wires a Runner to the TS and SUT command channels, already connected
// by the caller (typically via transport.Server.WaitForTestServer/SUT).
func New(tsCh, sutCh channel, log internal.Logger) *Runner {
	return &Runner{tsCh: tsCh, sutCh: sutCh, log: log}
}

// RunCase drives one case's setup queues, then — only on success — its
// body queues, matching "drive the two setup queues through TR; on
// success, drive the two body queues; else mark failure and skip the
// body."
func (r *Runner) RunCase(c catalogue.Case) report.CaseResult {
	if len(c.TSSetup) > 0 || len(c.SUTSetup) > 0 {
		if err := r.runPhase(c.TSSetup, c.SUTSetup); err != nil {
			return report.CaseResult{ID: c.ID, Name: c.Name, Passed: false,
				Message: fmt.Sprintf("setup failed: %v", err)}
		}
	}

	if err := r.runPhase(c.TSBody, c.SUTBody); err != nil {
		return report.CaseResult{ID: c.ID, Name: c.Name, Passed: false,
			Message: fmt.Sprintf("body failed: %v", err)}
	}
	return report.CaseResult{ID: c.ID, Name: c.Name, Passed: true, Message: "ok"}
}

// runPhase drives one (ts, sut) queue pair concurrently, released at the
// same instant so neither driver races ahead of the other's connection
// setup, and returns the first error either side produced. A failure on
// one side closes abort so the other terminates at its next sync check
// or queue item instead of running to completion uselessly.
func (r *Runner) runPhase(tsQueue, sutQueue []protocol.Command) error {
	barriers := newBarrierSet()
	abort := make(chan struct{})
	var once sync.Once
	trip := func() { once.Do(func() { close(abort) }) }

	tsDriver := NewDriver("ts", r.tsCh, barriers, abort, r.log)
	sutDriver := NewDriver("sut", r.sutCh, barriers, abort, r.log)

	var wg sync.WaitGroup
	var tsErr, sutErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, tsErr = tsDriver.Run(tsQueue)
		if tsErr != nil {
			trip()
		}
	}()
	go func() {
		defer wg.Done()
		_, sutErr = sutDriver.Run(sutQueue)
		if sutErr != nil {
			trip()
		}
	}()
	wg.Wait()

	return errors.Join(tsErr, sutErr)
}
