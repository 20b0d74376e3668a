package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/tcptester/config"
)

const validINI = `
[logging]
console = debug
file_logging = true

[test_runner]
ip = 127.0.0.1
port = 9090

[test_server]
ip = 127.0.0.1
iface = eth0

[sut]
ip = 127.0.0.1
port = 9091
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tcptester.ini")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_valid(t *testing.T) {
	path := writeTemp(t, validINI)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TestRunner.IP != "127.0.0.1" || cfg.TestRunner.Port != 9090 {
		t.Errorf("unexpected test_runner section: %+v", cfg.TestRunner)
	}
	if cfg.TestServer.Iface != "eth0" {
		t.Errorf("unexpected test_server section: %+v", cfg.TestServer)
	}
	if !cfg.Logging.FileLogging {
		t.Errorf("expected file_logging=true")
	}
}

func TestLoad_missingSection(t *testing.T) {
	const missing = `
[logging]
console = info

[test_runner]
ip = 127.0.0.1
port = 9090
`
	path := writeTemp(t, missing)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for missing sections")
	}
}

func TestLoad_emptyRequiredKey(t *testing.T) {
	const badIface = `
[logging]
console = info

[test_runner]
ip = 127.0.0.1
port = 9090

[test_server]
ip = 127.0.0.1
iface =

[sut]
ip = 127.0.0.1
port = 9091
`
	path := writeTemp(t, badIface)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for empty iface")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := config.Load("/nonexistent/path.ini"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
