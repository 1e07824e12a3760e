// SPDX-License-Identifier: MPL-2.0

// Package runtimetest provides a recording Executor for testing modules
// without touching the host.
package runtimetest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/omniauto/omniauto/internal/runtime"
)

var _ runtime.Executor = (*Executor)(nil)

type (
	// Call records one Run or Start invocation.
	Call struct {
		Detached bool
		Command  runtime.Command
	}

	// Executor records every call and answers from scripted responses keyed by
	// program name. Unscripted programs succeed with empty output.
	Executor struct {
		mu        sync.Mutex
		calls     []Call
		responses map[string]*runtime.Result
		missing   map[string]bool
		nextPID   int
	}
)

// New creates an Executor whose first started process gets PID 4242.
func New() *Executor {
	return &Executor{
		responses: make(map[string]*runtime.Result),
		missing:   make(map[string]bool),
		nextPID:   4242,
	}
}

// Respond scripts the result returned for program name.
func (e *Executor) Respond(name string, result *runtime.Result) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses[name] = result
	return e
}

// Fail scripts program name to exit with code and stderr.
func (e *Executor) Fail(name string, code runtime.ExitCode, stderr string) *Executor {
	return e.Respond(name, runtime.NewExitCodeResult(code, "", stderr))
}

// Missing makes LookPath, Run, and Start report name as not installed.
func (e *Executor) Missing(names ...string) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range names {
		e.missing[n] = true
	}
	return e
}

// Run records cmd and returns the scripted result.
func (e *Executor) Run(_ context.Context, cmd *runtime.Command) *runtime.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{Command: cloneCommand(cmd)})
	if e.missing[cmd.Name] {
		return runtime.NewErrorResult(1, fmt.Errorf("%s: %w", cmd.Name, runtime.ErrCommandNotFound))
	}
	if res, ok := e.responses[cmd.Name]; ok {
		copied := *res
		return &copied
	}
	return runtime.NewSuccessResult("", "")
}

// Start records cmd and returns a fresh PID.
func (e *Executor) Start(_ context.Context, cmd *runtime.Command) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{Detached: true, Command: cloneCommand(cmd)})
	if e.missing[cmd.Name] {
		return 0, fmt.Errorf("%s: %w", cmd.Name, runtime.ErrCommandNotFound)
	}
	pid := e.nextPID
	e.nextPID++
	return pid, nil
}

// LookPath reports every program as installed under /usr/bin unless marked Missing.
func (e *Executor) LookPath(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.missing[name] {
		return "", fmt.Errorf("%s: %w", name, runtime.ErrCommandNotFound)
	}
	return "/usr/bin/" + name, nil
}

// Calls returns a copy of the recorded calls.
func (e *Executor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.calls)
}

// CommandLines renders each recorded call as "name arg1 arg2".
func (e *Executor) CommandLines() []string {
	calls := e.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = strings.TrimSpace(c.Command.Name + " " + strings.Join(c.Command.Args, " "))
	}
	return lines
}

func cloneCommand(cmd *runtime.Command) runtime.Command {
	c := *cmd
	c.Args = slices.Clone(cmd.Args)
	return c
}

// Runtime exposes an Executor as a registered runtime of the given type.
type Runtime struct {
	*Executor
	Type runtime.RuntimeType
}

var _ runtime.Runtime = Runtime{}

// Name returns the runtime type.
func (r Runtime) Name() string { return string(r.Type) }

// Available always reports true.
func (Runtime) Available() bool { return true }

// Registry registers exec under every runtime type.
func Registry(exec *Executor) *runtime.Registry {
	reg := runtime.NewRegistry()
	for _, typ := range []runtime.RuntimeType{runtime.RuntimeTypeNative, runtime.RuntimeTypeVirtual, runtime.RuntimeTypePTY} {
		reg.Register(typ, Runtime{Executor: exec, Type: typ})
	}
	return reg
}
