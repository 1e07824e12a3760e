// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RuntimeNative runs commands in the host system shell.
	// Defined locally to avoid coupling config to internal/runtime.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs commands in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"
	// RuntimePTY runs commands attached to a pseudo-terminal.
	RuntimePTY RuntimeMode = "pty"

	// RiskSafe through RiskCritical mirror the action risk ladder.
	RiskSafe     RiskLevel = "safe"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"

	// LogLevelDebug enables debug output.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default log level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"

	// LogFormatText renders human-readable lines.
	LogFormatText LogFormat = "text"
	// LogFormatJSON renders one JSON object per line.
	LogFormatJSON LogFormat = "json"
	// LogFormatLogfmt renders key=value lines.
	LogFormatLogfmt LogFormat = "logfmt"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidConfigRuntimeMode is returned when a config RuntimeMode value is not recognized.
	ErrInvalidConfigRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidRiskLevel is returned when a RiskLevel value is not recognized.
	ErrInvalidRiskLevel = errors.New("invalid risk level")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDirPath is returned when a directory path is whitespace-only.
	ErrInvalidDirPath = errors.New("invalid directory path")
	// ErrInvalidLogConfig is the sentinel error wrapped by InvalidLogConfigError.
	ErrInvalidLogConfig = errors.New("invalid log config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode specifies the default runtime for the process module's run action.
	RuntimeMode string

	// InvalidConfigRuntimeModeError is returned when a config RuntimeMode value is not recognized.
	// It wraps ErrInvalidConfigRuntimeMode for errors.Is() compatibility.
	InvalidConfigRuntimeModeError struct {
		Value RuntimeMode
	}

	// RiskLevel caps which actions an adapter will execute.
	// The empty value means no cap.
	RiskLevel string

	// InvalidRiskLevelError is returned when a RiskLevel value is not recognized.
	InvalidRiskLevelError struct {
		Value RiskLevel
	}

	// LogLevel is the minimum level that gets logged.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// LogFormat selects the log line formatter.
	LogFormat string

	// InvalidLogFormatError is returned when a LogFormat value is not recognized.
	InvalidLogFormatError struct {
		Value LogFormat
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// DirPath is an optional filesystem directory.
	// The zero value ("") is valid and means "use the default".
	DirPath string

	// InvalidDirPathError is returned when a DirPath value is
	// non-empty but whitespace-only.
	InvalidDirPathError struct {
		Value DirPath
	}

	// InvalidLogConfigError is returned when a LogConfig has invalid fields.
	InvalidLogConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// BaseDir is where relative filesystem paths resolve. Empty means the home directory.
		BaseDir DirPath `json:"base_dir" mapstructure:"base_dir"`
		// MaxRisk refuses actions above this risk level.
		MaxRisk RiskLevel `json:"max_risk" mapstructure:"max_risk"`
		// DefaultRuntime is used by process.run when no runtime parameter is given.
		DefaultRuntime RuntimeMode `json:"default_runtime" mapstructure:"default_runtime"`
		// Shell overrides the native runtime's shell.
		Shell string `json:"shell" mapstructure:"shell"`
		// Log configures logging
		Log LogConfig `json:"log" mapstructure:"log"`
		// GUI configures the GUI-input module
		GUI GUIConfig `json:"gui" mapstructure:"gui"`
		// System configures the system module
		System SystemConfig `json:"system" mapstructure:"system"`
		// Network configures the network module
		Network NetworkConfig `json:"network" mapstructure:"network"`
		// Server configures the remote action surfaces
		Server ServerConfig `json:"server" mapstructure:"server"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// LogConfig configures logging output and rotation.
	LogConfig struct {
		Level  LogLevel  `json:"level" mapstructure:"level"`
		Format LogFormat `json:"format" mapstructure:"format"`
		// File enables rotated file output when set.
		File       string `json:"file" mapstructure:"file"`
		MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
		MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
		MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	}

	// GUIConfig configures the GUI-input module.
	GUIConfig struct {
		// PauseMS is the delay after every input event.
		PauseMS int `json:"pause_ms" mapstructure:"pause_ms"`
		// ScreenshotDir defaults to BaseDir when empty.
		ScreenshotDir DirPath `json:"screenshot_dir" mapstructure:"screenshot_dir"`
	}

	// SystemConfig configures the system module.
	SystemConfig struct {
		// AllowPowerActions gates shutdown, restart, sleep, hibernate, logout and lock.
		AllowPowerActions bool `json:"allow_power_actions" mapstructure:"allow_power_actions"`
	}

	// NetworkConfig configures the network module.
	NetworkConfig struct {
		TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
		// KnownHosts enables host key verification for sftp_upload.
		KnownHosts string `json:"known_hosts" mapstructure:"known_hosts"`
		UserAgent  string `json:"user_agent" mapstructure:"user_agent"`
	}

	// ServerConfig configures the HTTP and SSH action surfaces.
	ServerConfig struct {
		HTTP HTTPServerConfig `json:"http" mapstructure:"http"`
		SSH  SSHServerConfig  `json:"ssh" mapstructure:"ssh"`
	}

	// HTTPServerConfig configures the HTTP action surface.
	HTTPServerConfig struct {
		Address string `json:"address" mapstructure:"address"`
		// Token, when set, is required as a bearer token on every request.
		Token string `json:"token" mapstructure:"token"`
	}

	// SSHServerConfig configures the SSH action surface.
	SSHServerConfig struct {
		Address     string `json:"address" mapstructure:"address"`
		HostKeyPath string `json:"host_key_path" mapstructure:"host_key_path"`
		// AuthorizedKeys restricts logins to the listed public keys when set.
		AuthorizedKeys string `json:"authorized_keys" mapstructure:"authorized_keys"`
		// Token, when set, is accepted as the login password.
		Token string `json:"token" mapstructure:"token"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// IsValid returns whether the LogConfig has valid fields.
func (c LogConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidLogConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidLogConfigError.
func (e *InvalidLogConfigError) Error() string {
	return fmt.Sprintf("invalid log config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidLogConfig for errors.Is() compatibility.
func (e *InvalidLogConfigError) Unwrap() error { return ErrInvalidLogConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// Numeric ranges are enforced by the CUE schema; this covers the enums
// and paths that may also arrive through environment overrides.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.BaseDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.MaxRisk.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.DefaultRuntime.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Log.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.GUI.ScreenshotDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.GUI.PauseMS < 0 {
		errs = append(errs, fmt.Errorf("gui.pause_ms must not be negative, got %d", c.GUI.PauseMS))
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the DirPath.
func (p DirPath) String() string { return string(p) }

// IsValid returns whether the DirPath is valid.
func (p DirPath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDirPathError.
func (e *InvalidDirPathError) Error() string {
	return fmt.Sprintf("invalid directory path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidDirPath for errors.Is() compatibility.
func (e *InvalidDirPathError) Unwrap() error { return ErrInvalidDirPath }

// Error implements the error interface for InvalidConfigRuntimeModeError.
func (e *InvalidConfigRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: native, virtual, pty)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidConfigRuntimeModeError) Unwrap() error { return ErrInvalidConfigRuntimeMode }

// String returns the string representation of the RuntimeMode.
func (m RuntimeMode) String() string { return string(m) }

// IsValid returns whether the RuntimeMode is one of the defined runtime modes.
// The zero value is not valid; defaults fill it before validation.
func (m RuntimeMode) IsValid() (bool, []error) {
	switch m {
	case RuntimeNative, RuntimeVirtual, RuntimePTY:
		return true, nil
	default:
		return false, []error{&InvalidConfigRuntimeModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidRiskLevelError.
func (e *InvalidRiskLevelError) Error() string {
	return fmt.Sprintf("invalid risk level %q (valid: safe, moderate, high, critical)", e.Value)
}

// Unwrap returns ErrInvalidRiskLevel for errors.Is() compatibility.
func (e *InvalidRiskLevelError) Unwrap() error { return ErrInvalidRiskLevel }

// String returns the string representation of the RiskLevel.
func (r RiskLevel) String() string { return string(r) }

// IsValid returns whether the RiskLevel is empty or one of the defined levels.
func (r RiskLevel) IsValid() (bool, []error) {
	switch r {
	case "", RiskSafe, RiskModerate, RiskHigh, RiskCritical:
		return true, nil
	default:
		return false, []error{&InvalidRiskLevelError{Value: r}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogFormatError.
func (e *InvalidLogFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (valid: text, json, logfmt)", e.Value)
}

// Unwrap returns ErrInvalidLogFormat for errors.Is() compatibility.
func (e *InvalidLogFormatError) Unwrap() error { return ErrInvalidLogFormat }

// String returns the string representation of the LogFormat.
func (f LogFormat) String() string { return string(f) }

// IsValid returns whether the LogFormat is one of the defined formats.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return true, nil
	default:
		return false, []error{&InvalidLogFormatError{Value: f}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseDir:        "", // home directory
		MaxRisk:        RiskCritical,
		DefaultRuntime: RuntimeNative,
		Log: LogConfig{
			Level:      LogLevelInfo,
			Format:     LogFormatText,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		GUI: GUIConfig{
			PauseMS: 100,
		},
		System: SystemConfig{
			AllowPowerActions: false,
		},
		Network: NetworkConfig{
			TimeoutSeconds: 30,
		},
		Server: ServerConfig{
			HTTP: HTTPServerConfig{Address: "127.0.0.1:8765"},
			SSH:  SSHServerConfig{Address: "127.0.0.1:2222"},
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
