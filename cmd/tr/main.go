// Command tr runs the Test Runner: it listens for the TS and SUT parties
// to connect, then drives the test-case catalogue against them (the
// built-in one, or the cases loaded from -cases-dir when it is set),
// reporting a final PASS/FAIL per case.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/soypat/tcptester/catalogue"
	"github.com/soypat/tcptester/config"
	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/report"
	"github.com/soypat/tcptester/runner"
	"github.com/soypat/tcptester/transport"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "tr: unexpected panic:", r)
			os.Exit(2)
		}
	}()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "tcptester.ini", "path to the INI configuration file")
	casesDir := flag.String("cases-dir", "", "directory of JSON test-case files (defaults to the built-in catalogue)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	log := internal.NewLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("run_id", runID)))

	addr := fmt.Sprintf("%s:%d", cfg.TestRunner.IP, cfg.TestRunner.Port)
	srv := transport.NewServer()
	if err := srv.Start(addr); err != nil {
		return fmt.Errorf("tr: %w", err)
	}
	defer srv.Close()
	log.Info("listening for parties", slog.String("addr", srv.Addr()))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	tsCh, err := srv.WaitForTestServer(ctx)
	if err != nil {
		return fmt.Errorf("tr: waiting for test server: %w", err)
	}
	sutCh, err := srv.WaitForSUT(ctx)
	if err != nil {
		return fmt.Errorf("tr: waiting for sut: %w", err)
	}
	log.Info("both parties connected")

	var cat *catalogue.Catalogue
	var badCases []error
	if *casesDir != "" {
		cat, badCases = catalogue.LoadDir(*casesDir)
	} else {
		cat, badCases = catalogue.New(catalogue.Builtin()...)
	}
	for _, badErr := range badCases {
		log.Warn("skipping malformed test case", slog.String("err", badErr.Error()))
	}

	rep := report.Report{RunID: runID}
	rnr := runner.New(tsCh, sutCh, log)
	for _, c := range cat.Cases() {
		spinner, _ := report.Spinner(fmt.Sprintf("[test %d] %s", c.ID, c.Name))
		res := rnr.RunCase(c)
		if spinner != nil {
			if res.Passed {
				spinner.Success(fmt.Sprintf("[test %d] %s", c.ID, c.Name))
			} else {
				spinner.Fail(fmt.Sprintf("[test %d] %s: %s", c.ID, c.Name, res.Message))
			}
		}
		rep.Add(res)
	}

	if err := rep.PrintTable(); err != nil {
		log.Warn("rendering report table", slog.String("err", err.Error()))
	}
	rep.PrintBanner()
	fingerprint, err := rep.Fingerprint()
	if err == nil {
		log.Info("run complete", slog.String("fingerprint", fingerprint))
	}

	if !rep.AllPassed() {
		os.Exit(1)
	}
	return nil
}
