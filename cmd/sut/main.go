// Command sut runs the SUT adapter: it dials the Test Runner's command
// channel and maps commands onto kernel socket calls against the TCP
// stack under test.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/soypat/tcptester/config"
	"github.com/soypat/tcptester/internal"
	"github.com/soypat/tcptester/sutadapter"
	"github.com/soypat/tcptester/transport"
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
	log := internal.NewLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("party", "sut")))

	url := fmt.Sprintf("ws://%s:%d/sut", cfg.TestRunner.IP, cfg.TestRunner.Port)
	ch, err := transport.Dial(context.Background(), url)
	if err != nil {
		return fmt.Errorf("sut: dialing test runner: %w", err)
	}
	defer ch.Close()

	log.Info("connected to test runner", slog.String("url", url))
	adapter := sutadapter.NewAdapter(log)
	srv := sutadapter.NewServer(adapter, log)
	if err := srv.Serve(ch); err != nil {
		return fmt.Errorf("sut: %w", err)
	}
	return nil
}
