// Command tcpconform runs the Test Runner, Test Server, and SUT adapter
// together in one process, for development and CI smoke use without
// standing up three separate processes and a configuration file. The
// command channels are in-process transport.LocalChannel pairs; only the
// TS and SUT traffic under test goes over real sockets.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/netip"
	"os"

	"github.com/soypat/tcptester/catalogue"
	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/report"
	"github.com/soypat/tcptester/runner"
	"github.com/soypat/tcptester/sutadapter"
	"github.com/soypat/tcptester/transport"
	"github.com/soypat/tcptester/tsengine"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	iface := flag.String("iface", "lo", "loopback-capable interface the TS binds its raw socket to")
	ip := flag.String("ip", "127.0.0.1", "address the TS reports as its own when building segments")
	flag.Parse()

	log := internal.NewLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	localIP, err := netip.ParseAddr(*ip)
	if err != nil {
		return fmt.Errorf("tcpconform: invalid -ip %q: %w", *ip, err)
	}

	engine, err := tsengine.NewEngine(*iface, localIP, log)
	if err != nil {
		return fmt.Errorf("tcpconform: opening test server engine: %w", err)
	}
	defer engine.Close()

	tsDriverSide, tsPartySide := transport.NewLocalPair()
	sutDriverSide, sutPartySide := transport.NewLocalPair()

	tsSrv := tsengine.NewServer(engine, log)
	sutSrv := sutadapter.NewServer(sutadapter.NewAdapter(log), log)

	go func() {
		if err := tsSrv.Serve(tsPartySide); err != nil {
			log.Warn("test server exited", slog.String("err", err.Error()))
		}
	}()
	go func() {
		if err := sutSrv.Serve(sutPartySide); err != nil {
			log.Warn("sut adapter exited", slog.String("err", err.Error()))
		}
	}()

	cat, badCases := catalogue.New(catalogue.Builtin()...)
	for _, badErr := range badCases {
		log.Warn("skipping malformed test case", slog.String("err", badErr.Error()))
	}

	rep := report.Report{RunID: "loopback-demo"}
	rnr := runner.New(tsDriverSide, sutDriverSide, log)
	for _, c := range cat.Cases() {
		rep.Add(rnr.RunCase(c))
	}

	if err := rep.PrintTable(); err != nil {
		log.Warn("rendering report table", slog.String("err", err.Error()))
	}
	rep.PrintBanner()

	if !rep.AllPassed() {
		os.Exit(1)
	}
	return nil
}
