// Command ts runs the Test Server: it dials the Test Runner's command
// channel and answers commands by crafting and sniffing raw TCP segments
// on a configured network interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/netip"
	"os"

	"github.com/soypat/tcptester/config"
	"github.com/soypat/tcptester/internal"
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
	configPath := flag.String("config", "tcptester.ini", "path to the INI configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := internal.NewLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("party", "ts")))

	localIP, err := netip.ParseAddr(cfg.TestServer.IP)
	if err != nil {
		return fmt.Errorf("ts: invalid [test_server] ip %q: %w", cfg.TestServer.IP, err)
	}

	engine, err := tsengine.NewEngine(cfg.TestServer.Iface, localIP, log)
	if err != nil {
		return fmt.Errorf("ts: %w", err)
	}
	defer engine.Close()

	url := fmt.Sprintf("ws://%s:%d/ts", cfg.TestRunner.IP, cfg.TestRunner.Port)
	ch, err := transport.Dial(context.Background(), url)
	if err != nil {
		return fmt.Errorf("ts: dialing test runner: %w", err)
	}
	defer ch.Close()

	log.Info("connected to test runner", slog.String("url", url))
	srv := tsengine.NewServer(engine, log)
	if err := srv.Serve(ch); err != nil {
		return fmt.Errorf("ts: %w", err)
	}
	return nil
}
