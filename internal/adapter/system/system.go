// SPDX-License-Identifier: MPL-2.0

package system

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/pkg/platform"
)

// DefaultOSRelease is where Linux distributions describe themselves.
const DefaultOSRelease = "/etc/os-release"

var _ action.ModuleAdapter = (*Module)(nil)

type (
	// Options configures a Module.
	Options struct {
		Platform platform.Identity
		Executor runtime.Executor
		// Probe supplies get_info. Nil means the live host.
		Probe Probe
		// AllowPowerActions must be set for power_action to do anything.
		AllowPowerActions bool
		// OSRelease overrides DefaultOSRelease on Linux.
		OSRelease string
		// Environ supplies env. Nil means os.Environ.
		Environ  func() []string
		Logger   *log.Logger
		Dispatch []action.DispatcherOption
	}

	// Module is the system ModuleAdapter.
	Module struct {
		*action.Dispatcher

		platform   platform.Identity
		exec       runtime.Executor
		probe      Probe
		allowPower bool
		osRelease  string
		environ    func() []string
		logger     *log.Logger
	}
)

// New builds the system module.
func New(opts Options) (*Module, error) {
	if err := opts.Platform.Validate(); err != nil {
		return nil, err
	}
	if opts.Executor == nil {
		opts.Executor = runtime.NewNativeRuntime()
	}
	if opts.Probe == nil {
		opts.Probe = HostProbe{DiskPath: defaultDiskPath(opts.Platform)}
	}
	if opts.OSRelease == "" {
		opts.OSRelease = DefaultOSRelease
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	m := &Module{
		platform:   opts.Platform,
		exec:       opts.Executor,
		probe:      opts.Probe,
		allowPower: opts.AllowPowerActions,
		osRelease:  opts.OSRelease,
		environ:    opts.Environ,
		logger:     opts.Logger,
	}
	dispatchOpts := append([]action.DispatcherOption{action.WithLogger(opts.Logger)}, opts.Dispatch...)
	d, err := action.NewDispatcher(action.CapabilitySystem, m.specs(), dispatchOpts...)
	if err != nil {
		return nil, err
	}
	m.Dispatcher = d
	return m, nil
}

func (m *Module) specs() []action.Spec {
	return []action.Spec{
		{
			Name:        "get_info",
			Description: "Report operating system, CPU, memory, and disk facts",
			Risk:        action.RiskSafe,
			Handler:     m.getInfo,
		},
		{
			Name:        "set_volume",
			Description: "Set the output volume; levels are clamped to 0..100",
			Risk:        action.RiskModerate,
			Params:      []action.ParamSpec{{Name: "level", Type: action.ParamInteger, Required: true, Aliases: []string{"volume"}}},
			Handler:     m.setVolume,
		},
		{
			Name:        "power_action",
			Description: "Shut down, restart, suspend, hibernate, or lock the machine",
			Risk:        action.RiskCritical,
			Params:      []action.ParamSpec{{Name: "action", Type: action.ParamString, Required: true, Aliases: []string{"power"}}},
			Handler:     m.powerAction,
		},
		{
			Name:        "env",
			Description: "List environment variables, optionally filtered by prefix",
			Risk:        action.RiskSafe,
			Params:      []action.ParamSpec{{Name: "prefix", Type: action.ParamString}},
			Handler:     m.env,
		},
		{
			Name:        "service",
			Description: "Query or control a system service",
			Risk:        action.RiskHigh,
			Params: []action.ParamSpec{
				{Name: "name", Type: action.ParamString, Required: true, Aliases: []string{"service"}},
				{Name: "operation", Type: action.ParamString, Required: true, Description: "status, start, stop, or restart"},
			},
			Handler: m.service,
		},
	}
}

func defaultDiskPath(id platform.Identity) string {
	if id != platform.Windows {
		return "/"
	}
	if drive := os.Getenv("SystemDrive"); drive != "" {
		return drive + `\`
	}
	return `C:\`
}
