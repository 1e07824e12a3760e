// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"
)

// Runtime type constants for different execution environments.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"
	RuntimeTypePTY     RuntimeType = "pty"
)

var (
	// ErrInvalidRuntimeType is the sentinel error wrapped by InvalidRuntimeTypeError.
	ErrInvalidRuntimeType = errors.New("invalid runtime type")
	// ErrRuntimeNotAvailable is returned when a registered runtime cannot run on this host.
	ErrRuntimeNotAvailable = errors.New("runtime not available")
	// ErrCommandNotFound is returned when the requested program is not on PATH.
	ErrCommandNotFound = errors.New("command not found")
	// ErrTimeout is returned when a Command exceeds its Timeout.
	ErrTimeout = errors.New("command timed out")
)

type (
	// Command describes one program invocation.
	Command struct {
		// Name is the program to run (looked up on PATH when not absolute).
		Name string
		// Args are passed to the program verbatim.
		Args []string
		// Script, when set, is shell text run by the shell-capable runtimes
		// instead of Name/Args.
		Script string
		// Dir is the working directory. Empty means the current directory.
		Dir string
		// Env holds additional variables layered over the inherited environment.
		Env map[string]string
		// Stdin is where to read standard input. Nil means no input.
		Stdin io.Reader
		// Timeout bounds the run. Zero means no limit beyond ctx.
		Timeout time.Duration
	}

	// Result contains the result of a program execution.
	Result struct {
		// ExitCode is the exit code of the program.
		ExitCode ExitCode
		// Error contains an infrastructure failure (program missing, timeout).
		Error error
		// Output contains captured stdout.
		Output string
		// ErrOutput contains captured stderr.
		ErrOutput string
		// Duration is the wall-clock run time.
		Duration time.Duration
	}

	// Runtime defines the interface for program execution.
	Runtime interface {
		// Name returns the runtime name.
		Name() string
		// Available returns whether this runtime can run on the current system.
		Available() bool
		// Run executes cmd to completion and captures its output.
		Run(ctx context.Context, cmd *Command) *Result
	}

	// Executor is the collaborator automation modules use to reach the host.
	Executor interface {
		// Run executes cmd to completion and captures its output.
		Run(ctx context.Context, cmd *Command) *Result
		// Start launches cmd without waiting for it and returns its PID.
		Start(ctx context.Context, cmd *Command) (int, error)
		// LookPath reports the resolved path of a program, or ErrCommandNotFound.
		LookPath(name string) (string, error)
	}

	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// InvalidRuntimeTypeError is returned when a RuntimeType value is not recognized.
	InvalidRuntimeTypeError struct {
		Value RuntimeType
	}

	// CommandError reports a program that ran and exited non-zero.
	CommandError struct {
		Name     string
		ExitCode ExitCode
		Stderr   string
	}

	// Registry holds all available runtimes.
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// Error implements the error interface.
func (e *InvalidRuntimeTypeError) Error() string {
	return fmt.Sprintf("invalid runtime type %q (valid: native, virtual, pty)", e.Value)
}

// Unwrap returns ErrInvalidRuntimeType so callers can use errors.Is for programmatic detection.
func (e *InvalidRuntimeTypeError) Unwrap() error { return ErrInvalidRuntimeType }

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Name, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Name, e.ExitCode)
}

// String returns the string representation of the RuntimeType.
func (t RuntimeType) String() string { return string(t) }

// Validate returns nil if the RuntimeType is one of the known runtimes.
func (t RuntimeType) Validate() error {
	switch t {
	case RuntimeTypeNative, RuntimeTypeVirtual, RuntimeTypePTY:
		return nil
	default:
		return &InvalidRuntimeTypeError{Value: t}
	}
}

// Success returns true if the program executed successfully.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// Err folds the result into a single error: the infrastructure error if any,
// otherwise a CommandError for a non-zero exit. Successful runs return nil.
func (r *Result) Err(name string) error {
	if r.Error != nil {
		return r.Error
	}
	if !r.ExitCode.IsSuccess() {
		return &CommandError{Name: name, ExitCode: r.ExitCode, Stderr: trimOutput(r.ErrOutput)}
	}
	return nil
}

// NewRegistry creates a new runtime registry.
func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[RuntimeType]Runtime)}
}

// Register adds a runtime to the registry.
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns a runtime by type. Runtimes that cannot run on this host are
// reported with ErrRuntimeNotAvailable.
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	if err := typ.Validate(); err != nil {
		return nil, err
	}
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("runtime '%s' not registered", typ)
	}
	if !rt.Available() {
		return nil, fmt.Errorf("runtime '%s': %w", typ, ErrRuntimeNotAvailable)
	}
	return rt, nil
}

// Available returns all available runtimes in sorted order.
func (r *Registry) Available() []RuntimeType {
	var types []RuntimeType
	for typ, rt := range r.runtimes {
		if rt.Available() {
			types = append(types, typ)
		}
	}
	slices.Sort(types)
	return types
}

// EnvToSlice converts a map of environment variables to KEY=value pairs.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

func trimOutput(s string) string {
	const limit = 512
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
