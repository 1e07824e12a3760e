// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/omniauto/omniauto/internal/issue"
	"github.com/omniauto/omniauto/pkg/platform"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "omniauto"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. OMNIAUTO_GUI_PAUSE_MS.
	EnvPrefix = "OMNIAUTO"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the omniauto configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if dir := configDirFromOverrides(); dir != "" {
		return dir, nil
	}

	var configDir string

	switch platform.Identity(runtime.GOOS) {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the default config file location.
func ConfigFilePath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()
	resolvedPath := ""

	// An explicit --config path is used exclusively and must exist.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'omniauto config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", cueLoadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		for _, candidate := range []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		} {
			if !fileExists(candidate) {
				continue
			}
			if err := loadCUEIntoViper(v, candidate); err != nil {
				return nil, "", cueLoadError(candidate, err)
			}
			resolvedPath = candidate
			break
		}
		// No config file at all means defaults plus environment.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema, so the enums are checked again here.
	if valid, errs := cfg.IsValid(); !valid {
		ctxErr := issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check OMNIAUTO_* environment variables for typos")
		if resolvedPath != "" {
			ctxErr = ctxErr.WithResource(resolvedPath)
		}
		return nil, "", ctxErr.Wrap(joinFieldErrors(errs)).BuildError()
	}

	return &cfg, resolvedPath, nil
}

// newViper returns a Viper instance carrying every default and bound to
// OMNIAUTO_* environment variables.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("base_dir", defaults.BaseDir)
	v.SetDefault("max_risk", defaults.MaxRisk)
	v.SetDefault("default_runtime", defaults.DefaultRuntime)
	v.SetDefault("shell", defaults.Shell)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age_days", defaults.Log.MaxAgeDays)
	v.SetDefault("gui.pause_ms", defaults.GUI.PauseMS)
	v.SetDefault("gui.screenshot_dir", defaults.GUI.ScreenshotDir)
	v.SetDefault("system.allow_power_actions", defaults.System.AllowPowerActions)
	v.SetDefault("network.timeout_seconds", defaults.Network.TimeoutSeconds)
	v.SetDefault("network.known_hosts", defaults.Network.KnownHosts)
	v.SetDefault("network.user_agent", defaults.Network.UserAgent)
	v.SetDefault("server.http.address", defaults.Server.HTTP.Address)
	v.SetDefault("server.http.token", defaults.Server.HTTP.Token)
	v.SetDefault("server.ssh.address", defaults.Server.SSH.Address)
	v.SetDefault("server.ssh.host_key_path", defaults.Server.SSH.HostKeyPath)
	v.SetDefault("server.ssh.authorized_keys", defaults.Server.SSH.AuthorizedKeys)
	v.SetDefault("server.ssh.token", defaults.Server.SSH.Token)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func cueLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'omniauto config --help' for configuration options").
		Wrap(err).
		BuildError()
}

func joinFieldErrors(errs []error) error {
	var msgs []string
	for _, err := range errs {
		var ce *InvalidConfigError
		if errors.As(err, &ce) {
			for _, fe := range ce.FieldErrors {
				msgs = append(msgs, fe.Error())
			}
			continue
		}
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Fields are optional in the schema, so validation uses Concrete(false) and
// the result is merged over the defaults rather than decoded into Config.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkFileSize(data, maxConfigFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file if none exists and
// returns its path.
func CreateDefaultConfig() (string, error) {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration.
// Empty optional strings are omitted so the output stays loadable.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// omniauto configuration file\n\n")

	optString(&sb, "", "base_dir", string(cfg.BaseDir))
	fmt.Fprintf(&sb, "max_risk: %q\n", cfg.MaxRisk)
	fmt.Fprintf(&sb, "default_runtime: %q\n", cfg.DefaultRuntime)
	optString(&sb, "", "shell", cfg.Shell)

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "\tformat: %q\n", cfg.Log.Format)
	optString(&sb, "\t", "file", cfg.Log.File)
	fmt.Fprintf(&sb, "\tmax_size_mb: %d\n", cfg.Log.MaxSizeMB)
	fmt.Fprintf(&sb, "\tmax_backups: %d\n", cfg.Log.MaxBackups)
	fmt.Fprintf(&sb, "\tmax_age_days: %d\n", cfg.Log.MaxAgeDays)
	sb.WriteString("}\n")

	sb.WriteString("\ngui: {\n")
	fmt.Fprintf(&sb, "\tpause_ms: %d\n", cfg.GUI.PauseMS)
	optString(&sb, "\t", "screenshot_dir", string(cfg.GUI.ScreenshotDir))
	sb.WriteString("}\n")

	sb.WriteString("\nsystem: {\n")
	fmt.Fprintf(&sb, "\tallow_power_actions: %v\n", cfg.System.AllowPowerActions)
	sb.WriteString("}\n")

	sb.WriteString("\nnetwork: {\n")
	fmt.Fprintf(&sb, "\ttimeout_seconds: %d\n", cfg.Network.TimeoutSeconds)
	optString(&sb, "\t", "known_hosts", cfg.Network.KnownHosts)
	optString(&sb, "\t", "user_agent", cfg.Network.UserAgent)
	sb.WriteString("}\n")

	sb.WriteString("\nserver: {\n")
	sb.WriteString("\thttp: {\n")
	optString(&sb, "\t\t", "address", cfg.Server.HTTP.Address)
	optString(&sb, "\t\t", "token", cfg.Server.HTTP.Token)
	sb.WriteString("\t}\n")
	sb.WriteString("\tssh: {\n")
	optString(&sb, "\t\t", "address", cfg.Server.SSH.Address)
	optString(&sb, "\t\t", "host_key_path", cfg.Server.SSH.HostKeyPath)
	optString(&sb, "\t\t", "authorized_keys", cfg.Server.SSH.AuthorizedKeys)
	optString(&sb, "\t\t", "token", cfg.Server.SSH.Token)
	sb.WriteString("\t}\n")
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func optString(sb *strings.Builder, indent, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "%s%s: %q\n", indent, key, value)
}
