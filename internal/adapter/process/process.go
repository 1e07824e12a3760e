// SPDX-License-Identifier: MPL-2.0

package process

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/pkg/platform"
)

var _ action.ModuleAdapter = (*Module)(nil)

type (
	// Options configures a Module.
	Options struct {
		Platform platform.Identity
		// Executor launches detached programs for start.
		Executor runtime.Executor
		// Runtimes serves the run action. Nil disables run with an operation failure.
		Runtimes *runtime.Registry
		// DefaultRuntime is used by run when no runtime parameter is given.
		DefaultRuntime runtime.RuntimeType
		// Table reads the process table. Nil means the host table.
		Table  Table
		Logger *log.Logger
		// Dispatch is forwarded to the action dispatcher.
		Dispatch []action.DispatcherOption
	}

	// Module is the process ModuleAdapter.
	Module struct {
		*action.Dispatcher

		platform       platform.Identity
		exec           runtime.Executor
		runtimes       *runtime.Registry
		defaultRuntime runtime.RuntimeType
		table          Table
		match          NameMatcher
		logger         *log.Logger
		self           int32
	}
)

// New builds the process module.
func New(opts Options) (*Module, error) {
	if opts.Executor == nil {
		opts.Executor = runtime.NewNativeRuntime()
	}
	if opts.Table == nil {
		opts.Table = HostTable{}
	}
	if opts.DefaultRuntime == "" {
		opts.DefaultRuntime = runtime.RuntimeTypeNative
	}
	if err := opts.DefaultRuntime.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	m := &Module{
		platform:       opts.Platform,
		exec:           opts.Executor,
		runtimes:       opts.Runtimes,
		defaultRuntime: opts.DefaultRuntime,
		table:          opts.Table,
		match:          MatcherFor(opts.Platform),
		logger:         opts.Logger,
		self:           currentPID(),
	}

	dispatchOpts := append([]action.DispatcherOption{action.WithLogger(opts.Logger)}, opts.Dispatch...)
	d, err := action.NewDispatcher(action.CapabilityProcess, m.specs(), dispatchOpts...)
	if err != nil {
		return nil, err
	}
	m.Dispatcher = d
	return m, nil
}

func (m *Module) specs() []action.Spec {
	args := action.ParamSpec{Name: "args", Type: action.ParamAny, Description: "Arguments as a list, or a string split with shell quoting rules"}
	workDir := action.ParamSpec{Name: "work_dir", Type: action.ParamString, Aliases: []string{"cwd"}}
	envFile := action.ParamSpec{Name: "env_file", Type: action.ParamString, Description: "dotenv file layered over the inherited environment; suffix ? makes it optional"}
	return []action.Spec{
		{
			Name:        "start",
			Description: "Launch a program without waiting for it and return its PID",
			Risk:        action.RiskModerate,
			Params: []action.ParamSpec{
				{Name: "program", Type: action.ParamString, Required: true, Aliases: []string{"application", "exe", "path"}},
				args, workDir, envFile,
			},
			Handler: m.start,
		},
		{
			Name:        "terminate",
			Description: "Terminate a process by PID, or every process matching a name",
			Risk:        action.RiskHigh,
			Params: []action.ParamSpec{
				{Name: "pid_or_name", Type: action.ParamAny, Required: true, Aliases: []string{"pid", "program", "name"}},
			},
			Handler: m.terminate,
		},
		{
			Name:        "list",
			Description: "List running processes",
			Risk:        action.RiskSafe,
			Params:      []action.ParamSpec{{Name: "name", Type: action.ParamString, Description: "Only processes matching this name"}},
			Handler:     m.list,
		},
		{
			Name:        "info",
			Description: "Report details for one process",
			Risk:        action.RiskSafe,
			Params:      []action.ParamSpec{{Name: "pid", Type: action.ParamInteger, Required: true}},
			Handler:     m.info,
		},
		{
			Name:        "run",
			Description: "Run a command to completion and capture its output",
			Risk:        action.RiskHigh,
			Params: []action.ParamSpec{
				{Name: "command", Type: action.ParamString, Required: true},
				args, workDir, envFile,
				{Name: "runtime", Type: action.ParamString, Description: "native, virtual, or pty"},
				{Name: "shell", Type: action.ParamBoolean, Description: "Treat command as shell text"},
				{Name: "timeout", Type: action.ParamNumber, Description: "Seconds before the command is killed"},
				{Name: "check", Type: action.ParamBoolean, Description: "Fail on non-zero exit (default true)"},
			},
			Handler: m.run,
		},
	}
}
