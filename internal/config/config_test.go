// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/omniauto/omniauto/internal/issue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.DefaultRuntime != RuntimeNative {
		t.Errorf("DefaultRuntime = %q, want native", cfg.DefaultRuntime)
	}
	if cfg.MaxRisk != RiskCritical {
		t.Errorf("MaxRisk = %q, want critical", cfg.MaxRisk)
	}
	if cfg.GUI.PauseMS != 100 {
		t.Errorf("GUI.PauseMS = %d, want 100", cfg.GUI.PauseMS)
	}
	if cfg.System.AllowPowerActions {
		t.Error("power actions must be disabled by default")
	}
	if cfg.Log.Level != LogLevelInfo || cfg.Log.Format != LogFormatText {
		t.Errorf("Log = %+v, want info/text", cfg.Log)
	}
	if cfg.Network.TimeoutSeconds != 30 {
		t.Errorf("Network.TimeoutSeconds = %d, want 30", cfg.Network.TimeoutSeconds)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("default config invalid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is linux-only")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if got != dir {
		t.Errorf("ConfigDir() = %s, want %s", got, dir)
	}

	path, err := ConfigFilePath()
	if err != nil {
		t.Fatalf("ConfigFilePath() returned error: %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); path != want {
		t.Errorf("ConfigFilePath() = %s, want %s", path, want)
	}
}

func TestConfigDirEnv(t *testing.T) {
	envDir := t.TempDir()
	t.Setenv(ConfigDirEnv, envDir)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if got != envDir {
		t.Errorf("ConfigDir() = %s, want %s", got, envDir)
	}

	pinned := t.TempDir()
	SetConfigDirOverride(pinned)
	t.Cleanup(Reset)
	if got, _ := ConfigDir(); got != pinned {
		t.Errorf("ConfigDir() with override = %s, want %s", got, pinned)
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().Resolve(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if cfg.GUI.PauseMS != DefaultConfig().GUI.PauseMS {
		t.Errorf("GUI.PauseMS = %d, want default", cfg.GUI.PauseMS)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := writeConfig(t, dir, `
max_risk: "moderate"
default_runtime: "virtual"
gui: pause_ms: 250
system: allow_power_actions: true
log: {
	level: "debug"
	format: "json"
}
server: http: {
	address: "0.0.0.0:9000"
	token: "s3cret"
}
`)

	cfg, path, err := NewProvider().Resolve(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if cfg.MaxRisk != RiskModerate {
		t.Errorf("MaxRisk = %q, want moderate", cfg.MaxRisk)
	}
	if cfg.DefaultRuntime != RuntimeVirtual {
		t.Errorf("DefaultRuntime = %q, want virtual", cfg.DefaultRuntime)
	}
	if cfg.GUI.PauseMS != 250 {
		t.Errorf("GUI.PauseMS = %d, want 250", cfg.GUI.PauseMS)
	}
	if !cfg.System.AllowPowerActions {
		t.Error("AllowPowerActions should be true")
	}
	if cfg.Log.Level != LogLevelDebug || cfg.Log.Format != LogFormatJSON {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Server.HTTP.Address != "0.0.0.0:9000" || cfg.Server.HTTP.Token != "s3cret" {
		t.Errorf("Server.HTTP = %+v", cfg.Server.HTTP)
	}
	// Unset keys keep their defaults.
	if cfg.Network.TimeoutSeconds != 30 {
		t.Errorf("Network.TimeoutSeconds = %d, want 30", cfg.Network.TimeoutSeconds)
	}
	if cfg.Server.SSH.Address != DefaultConfig().Server.SSH.Address {
		t.Errorf("Server.SSH.Address = %q, want default", cfg.Server.SSH.Address)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("OMNIAUTO_GUI_PAUSE_MS", "5")
	t.Setenv("OMNIAUTO_MAX_RISK", "safe")

	dir := t.TempDir()
	writeConfig(t, dir, `gui: pause_ms: 250`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.GUI.PauseMS != 5 {
		t.Errorf("GUI.PauseMS = %d, want env override 5", cfg.GUI.PauseMS)
	}
	if cfg.MaxRisk != RiskSafe {
		t.Errorf("MaxRisk = %q, want safe", cfg.MaxRisk)
	}
}

func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	t.Setenv("OMNIAUTO_DEFAULT_RUNTIME", "container")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for invalid runtime override")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error should wrap ErrInvalidConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "container") {
		t.Errorf("error should name the bad value, got %v", err)
	}
}

func TestLoad_CustomPath_NotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T", err)
	}
	if ae.Operation != "load configuration" {
		t.Errorf("Operation = %q", ae.Operation)
	}
	if ae.Resource != missing {
		t.Errorf("Resource = %q, want %q", ae.Resource, missing)
	}
	if len(ae.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
}

func TestLoad_CustomPath_SchemaViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{"negative pause", `gui: pause_ms: -1`, "gui.pause_ms"},
		{"unknown risk", `max_risk: "extreme"`, "max_risk"},
		{"unknown field", `container_engine: "docker"`, "container_engine"},
		{"bad address", `server: http: address: "no port"`, "server.http.address"},
		{"syntax error", `gui: {`, "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(filepath.Join(dir, "nested"))
	t.Cleanup(Reset)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	// The generated file must load back to the defaults.
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.MaxRisk != RiskCritical || cfg.GUI.PauseMS != 100 {
		t.Errorf("round-tripped config = %+v", cfg)
	}

	// A second call leaves an existing file untouched.
	if err := os.WriteFile(path, []byte(`gui: pause_ms: 7`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second CreateDefaultConfig() returned error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `gui: pause_ms: 7` {
		t.Errorf("existing config overwritten: %q", data)
	}
}

func TestGenerateCUE_OmitsEmptyStrings(t *testing.T) {
	t.Parallel()

	out := GenerateCUE(DefaultConfig())
	for _, key := range []string{"base_dir", "shell", "known_hosts", "token", "host_key_path"} {
		if strings.Contains(out, key+":") {
			t.Errorf("GenerateCUE output should omit empty %s:\n%s", key, out)
		}
	}

	cfg := DefaultConfig()
	cfg.BaseDir = "/srv/auto"
	cfg.Network.KnownHosts = "/etc/ssh/known_hosts"
	out = GenerateCUE(cfg)
	if !strings.Contains(out, `base_dir: "/srv/auto"`) || !strings.Contains(out, `known_hosts: "/etc/ssh/known_hosts"`) {
		t.Errorf("GenerateCUE output missing set values:\n%s", out)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"gui"}, "gui"},
		{[]string{"server", "http", "address"}, "server.http.address"},
		{[]string{"items", "0", "name"}, "items[0].name"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.in); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := checkFileSize(make([]byte, 10), 10, "a.cue"); err != nil {
		t.Errorf("size at limit should pass, got %v", err)
	}
	if err := checkFileSize(make([]byte, 11), 10, "a.cue"); err == nil {
		t.Error("size over limit should fail")
	}
}
