// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/omniauto/omniauto/internal/config"
)

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: config.LogLevelWarn, Console: &buf})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, _, err := New(Options{Format: config.LogFormatJSON, Prefix: "process", Console: &buf})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	logger.Info("started", "pid", 42)

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["msg"] != "started" {
		t.Errorf("msg = %v", line["msg"])
	}
	if line["prefix"] != "process" {
		t.Errorf("prefix = %v", line["prefix"])
	}
	if line["pid"] != float64(42) {
		t.Errorf("pid = %v", line["pid"])
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	t.Parallel()

	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}

	_, _, err := New(Options{Format: "xml"})
	if !errors.Is(err, config.ErrInvalidLogFormat) {
		t.Errorf("expected ErrInvalidLogFormat, got %v", err)
	}
}

func TestNew_RotatedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "omniauto.log")
	var console bytes.Buffer
	logger, closer, err := New(Options{
		Level:      config.LogLevelInfo,
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		Console:    &console,
	})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	logger.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file content = %q", data)
	}
	if console.Len() != 0 {
		t.Errorf("console should stay quiet above debug level, got %q", console.String())
	}
}

func TestNew_DebugTeesToConsole(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "omniauto.log")
	var console bytes.Buffer
	logger, closer, err := New(Options{Level: config.LogLevelDebug, File: path, Console: &console})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer closer.Close()

	logger.Debug("both")
	if !strings.Contains(console.String(), "both") {
		t.Errorf("console missing debug line: %q", console.String())
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	c := config.DefaultConfig().Log
	c.File = "/var/log/omniauto.log"
	opts := FromConfig(c)
	if opts.Level != c.Level || opts.Format != c.Format || opts.File != c.File || opts.MaxSizeMB != c.MaxSizeMB {
		t.Errorf("FromConfig() = %+v, from %+v", opts, c)
	}
}
