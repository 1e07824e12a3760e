// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter/gui"
	"github.com/omniauto/omniauto/internal/adapter/network"
	"github.com/omniauto/omniauto/internal/adapter/process"
	"github.com/omniauto/omniauto/internal/adapter/system"
	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/pkg/platform"
)

type (
	// Option configures Create.
	Option func(*settings)

	// settings is the resolved construction input shared by every variant.
	settings struct {
		platform   platform.Identity
		baseDir    string
		logger     *log.Logger
		maxRisk    action.Risk
		requestIDs func() string

		shell          string
		sandbox        *platform.SandboxType
		executor       runtime.Executor
		runtimes       *runtime.Registry
		defaultRuntime runtime.RuntimeType

		guiPause      time.Duration
		screenshotDir string
		guiBackend    gui.Backend

		allowPower bool
		probe      system.Probe

		httpClient *http.Client
		userAgent  string
		knownHosts string
		inspector  network.Inspector
		uploader   network.Uploader

		processTable process.Table
	}
)

func defaultSettings() *settings {
	return &settings{
		logger:   log.New(io.Discard),
		guiPause: gui.DefaultPause,
	}
}

// WithPlatform overrides platform detection.
func WithPlatform(id platform.Identity) Option {
	return func(s *settings) { s.platform = id }
}

// WithBaseDir anchors relative paths used by filesystem, screenshot, and download actions.
func WithBaseDir(dir string) Option {
	return func(s *settings) { s.baseDir = dir }
}

// WithLogger sets the logger handed to every module.
func WithLogger(logger *log.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxRisk refuses actions above the given risk level in every module.
func WithMaxRisk(max action.Risk) Option {
	return func(s *settings) { s.maxRisk = max }
}

// WithRequestIDs overrides request ID generation in every module.
func WithRequestIDs(fn func() string) Option {
	return func(s *settings) { s.requestIDs = fn }
}

// WithShell sets the shell used for shell=true commands.
func WithShell(shell string) Option {
	return func(s *settings) { s.shell = shell }
}

// WithSandbox overrides Flatpak/Snap detection.
func WithSandbox(st platform.SandboxType) Option {
	return func(s *settings) { s.sandbox = &st }
}

// WithExecutor replaces the host executor used by process, gui, and system.
// When set without WithRuntimes, the run action is served by a registry
// built around the host runtimes.
func WithExecutor(exec runtime.Executor) Option {
	return func(s *settings) { s.executor = exec }
}

// WithRuntimes replaces the runtime registry used by the run action.
func WithRuntimes(reg *runtime.Registry) Option {
	return func(s *settings) { s.runtimes = reg }
}

// WithDefaultRuntime selects the runtime used by run when none is requested.
func WithDefaultRuntime(typ runtime.RuntimeType) Option {
	return func(s *settings) { s.defaultRuntime = typ }
}

// WithGUIPause sets the settle time after each input action.
func WithGUIPause(d time.Duration) Option {
	return func(s *settings) { s.guiPause = d }
}

// WithScreenshotDir anchors relative screenshot filenames.
func WithScreenshotDir(dir string) Option {
	return func(s *settings) { s.screenshotDir = dir }
}

// WithGUIBackend replaces the platform input backend.
func WithGUIBackend(b gui.Backend) Option {
	return func(s *settings) { s.guiBackend = b }
}

// WithPowerActions enables power_action.
func WithPowerActions(allow bool) Option {
	return func(s *settings) { s.allowPower = allow }
}

// WithSystemProbe replaces the host probe behind system get_info.
func WithSystemProbe(p system.Probe) Option {
	return func(s *settings) { s.probe = p }
}

// WithHTTPClient sets the client used by network actions.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithUserAgent sets the User-Agent of network requests.
func WithUserAgent(ua string) Option {
	return func(s *settings) { s.userAgent = ua }
}

// WithKnownHosts sets the default known_hosts file for sftp_upload.
func WithKnownHosts(path string) Option {
	return func(s *settings) { s.knownHosts = path }
}

// WithNetworkInspector replaces the interface inspector behind network get_info.
func WithNetworkInspector(i network.Inspector) Option {
	return func(s *settings) { s.inspector = i }
}

// WithUploader replaces the SFTP uploader.
func WithUploader(u network.Uploader) Option {
	return func(s *settings) { s.uploader = u }
}

// WithProcessTable replaces the host process table.
func WithProcessTable(t process.Table) Option {
	return func(s *settings) { s.processTable = t }
}

// dispatch returns the dispatcher options every module shares.
func (s *settings) dispatch() []action.DispatcherOption {
	opts := []action.DispatcherOption{action.WithMaxRisk(s.maxRisk)}
	if s.requestIDs != nil {
		opts = append(opts, action.WithRequestIDs(s.requestIDs))
	}
	return opts
}

// moduleLogger returns the shared logger tagged for one capability.
func (s *settings) moduleLogger(c action.Capability) *log.Logger {
	return s.logger.WithPrefix(string(c))
}
