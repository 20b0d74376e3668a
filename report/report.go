// Package report renders test-case outcomes to the console and produces a
// stable per-run fingerprint of the overall result set.
package report

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"golang.org/x/crypto/blake2b"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 2006 15:04:05"
}

// CaseResult is the verdict for one test case, the unit of recovery per
// the error-handling design: a case either passed entirely or failed.
type CaseResult struct {
	ID      int
	Name    string
	Passed  bool
	Message string
}

// Report accumulates CaseResults for one run and renders them.
type Report struct {
	RunID   string
	Results []CaseResult
}

// Add records one case's outcome.
func (r *Report) Add(res CaseResult) {
	r.Results = append(r.Results, res)
}

// AllPassed reports whether every recorded case passed.
func (r *Report) AllPassed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// PrintTable renders one row per case with a PASS/FAIL indicator.
func (r *Report) PrintTable() error {
	rows := pterm.TableData{{"ID", "NAME", "STATUS", "MESSAGE"}}
	for _, res := range r.Results {
		status := pterm.Green("PASS")
		if !res.Passed {
			status = pterm.Red("FAIL")
		}
		rows = append(rows, []string{fmt.Sprint(res.ID), res.Name, status, res.Message})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// PrintBanner prints the final pass/fail verdict for the run.
func (r *Report) PrintBanner() {
	if r.AllPassed() {
		pterm.DefaultBigText.WithLetters(putils.LettersFromString("PASS")).Render()
	} else {
		pterm.DefaultBigText.WithLetters(putils.LettersFromString("FAIL")).Render()
	}
}

// Spinner starts a per-case progress spinner with msg as its initial text.
func Spinner(msg string) (*pterm.SpinnerPrinter, error) {
	return pterm.DefaultSpinner.Start(msg)
}

// Fingerprint computes a stable digest of the run's results, letting two
// runs of the same case set be compared without re-running them.
func (r *Report) Fingerprint() (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("report: new hash: %w", err)
	}
	for _, res := range r.Results {
		status := byte(0)
		if res.Passed {
			status = 1
		}
		fmt.Fprintf(h, "%d|%s|%d|%s\n", res.ID, res.Name, status, res.Message)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
