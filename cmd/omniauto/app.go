// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter"
	"github.com/omniauto/omniauto/internal/config"
	"github.com/omniauto/omniauto/internal/logging"
	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/internal/service"
	"github.com/omniauto/omniauto/pkg/platform"
)

type (
	// App is the composition root of the CLI. Every command receives it and
	// reaches configuration, logging and the adapter through it.
	App struct {
		Config config.Provider

		stdin          io.Reader
		stdout         io.Writer
		stderr         io.Writer
		adapterOptions []adapter.Option

		flags globalFlags

		cfg       *config.Config
		cfgPath   string
		logger    *log.Logger
		logCloser io.Closer
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// AdapterOptions are applied after the options derived from
		// configuration and flags.
		AdapterOptions []adapter.Option
	}

	globalFlags struct {
		configPath string
		platform   string
		output     string
		verbose    bool
	}
)

// NewApp creates an App.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:         deps.Config,
		stdin:          deps.Stdin,
		stdout:         deps.Stdout,
		stderr:         deps.Stderr,
		adapterOptions: deps.AdapterOptions,
		logger:         logging.Discard(),
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig resolves configuration and builds the logger. With optional
// set, a broken configuration is reported and defaults are used instead.
func (a *App) loadConfig(ctx context.Context, optional bool) error {
	cfg, path, err := a.Config.Resolve(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		if !optional {
			return err
		}
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.flags.verbose))
		cfg, path = config.DefaultConfig(), ""
	}
	a.cfg, a.cfgPath = cfg, path
	if !a.flags.verbose {
		a.flags.verbose = cfg.UI.Verbose
	}

	opts := logging.FromConfig(cfg.Log)
	opts.Console = a.stderr
	opts.Prefix = config.AppName
	if a.flags.verbose {
		opts.Level = config.LogLevelDebug
	}
	logger, closer, err := logging.New(opts)
	if err != nil {
		return err
	}
	a.logger, a.logCloser = logger, closer
	return nil
}

// close releases the log file, if any.
func (a *App) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

// newService builds the adapter for the configured or requested platform.
// The returned function releases it.
func (a *App) newService() (*service.Service, func(), error) {
	ad, err := adapter.Create(append(a.baseAdapterOptions(), a.adapterOptions...)...)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := ad.Cleanup(); err != nil {
			a.logger.Warn("adapter cleanup", "err", err)
		}
	}
	return service.New(ad, a.logger), release, nil
}

func (a *App) baseAdapterOptions() []adapter.Option {
	cfg := a.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	opts := []adapter.Option{
		adapter.WithLogger(a.logger),
		adapter.WithMaxRisk(action.Risk(cfg.MaxRisk)),
		adapter.WithDefaultRuntime(runtime.RuntimeType(cfg.DefaultRuntime)),
		adapter.WithGUIPause(time.Duration(cfg.GUI.PauseMS) * time.Millisecond),
		adapter.WithScreenshotDir(string(cfg.GUI.ScreenshotDir)),
		adapter.WithPowerActions(cfg.System.AllowPowerActions),
		adapter.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Network.TimeoutSeconds) * time.Second}),
		adapter.WithUserAgent(cfg.Network.UserAgent),
		adapter.WithKnownHosts(cfg.Network.KnownHosts),
	}
	if cfg.BaseDir != "" {
		opts = append(opts, adapter.WithBaseDir(string(cfg.BaseDir)))
	}
	if cfg.Shell != "" {
		opts = append(opts, adapter.WithShell(cfg.Shell))
	}
	if a.flags.platform != "" {
		opts = append(opts, adapter.WithPlatform(platform.Identity(a.flags.platform)))
	}
	return opts
}

// config returns the loaded configuration, or the defaults before loading.
func (a *App) config() *config.Config {
	if a.cfg == nil {
		return config.DefaultConfig()
	}
	return a.cfg
}

// exitSilently marks err as already reported.
func exitSilently(code int) error {
	return &ExitError{Code: code}
}

// isExitError reports whether err only carries an exit code.
func isExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
