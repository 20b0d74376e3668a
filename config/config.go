// Package config loads the INI configuration shared by the Test Runner,
// Test Server, and SUT adapter binaries.
package config

import (
	"fmt"

	"github.com/go-ini/ini"
)

// Logging holds the [logging] section.
type Logging struct {
	Console     string `ini:"console"`
	FileLogging bool   `ini:"file_logging"`
}

// TestRunner holds the [test_runner] section: the address the TR listens
// on for both party channels.
type TestRunner struct {
	IP   string `ini:"ip"`
	Port int    `ini:"port"`
}

// TestServer holds the [test_server] section: the TS's own reported
// address plus the interface it binds raw TCP I/O to.
type TestServer struct {
	IP    string `ini:"ip"`
	Iface string `ini:"iface"`
}

// SUT holds the [sut] section: the SUT's address and port. Load requires
// both; the binaries in this repository do not read them otherwise.
type SUT struct {
	IP   string `ini:"ip"`
	Port int    `ini:"port"`
}

// Config is the fully parsed configuration file.
type Config struct {
	Logging    Logging
	TestRunner TestRunner
	TestServer TestServer
	SUT        SUT
}

// Load reads and validates the INI file at path. A missing file or
// section, or a missing or empty ip/port/iface key in [test_runner],
// [test_server] or [sut], is a configuration error and causes immediate
// startup failure (exit code handled by the caller). Keys of [logging] are
// not checked: a missing one is left at its zero value.
func Load(path string) (Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}

	var cfg Config
	sections := []struct {
		name string
		dst  any
	}{
		{"logging", &cfg.Logging},
		{"test_runner", &cfg.TestRunner},
		{"test_server", &cfg.TestServer},
		{"sut", &cfg.SUT},
	}
	for _, s := range sections {
		sec, err := f.GetSection(s.name)
		if err != nil {
			return Config{}, fmt.Errorf("config: missing section [%s]: %w", s.name, err)
		}
		if err := sec.MapTo(s.dst); err != nil {
			return Config{}, fmt.Errorf("config: parsing section [%s]: %w", s.name, err)
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TestRunner.IP == "" || c.TestRunner.Port == 0 {
		return fmt.Errorf("config: [test_runner] requires non-empty ip and port")
	}
	if c.TestServer.IP == "" || c.TestServer.Iface == "" {
		return fmt.Errorf("config: [test_server] requires non-empty ip and iface")
	}
	if c.SUT.IP == "" || c.SUT.Port == 0 {
		return fmt.Errorf("config: [sut] requires non-empty ip and port")
	}
	return nil
}
