// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

var _ Runtime = (*VirtualRuntime)(nil)

// VirtualRuntime executes shell text with the embedded mvdan/sh interpreter, so
// POSIX scripts behave the same on hosts without a POSIX shell.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime.
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() string { return string(RuntimeTypeVirtual) }

// Available returns whether this runtime is available. The interpreter is built in.
func (r *VirtualRuntime) Available() bool { return true }

// Run parses and interprets cmd. Command.Script is used verbatim; otherwise
// Name and Args are quoted into a single command line.
func (r *VirtualRuntime) Run(ctx context.Context, cmd *Command) *Result {
	ctx, cancel := withTimeout(ctx, cmd.Timeout)
	defer cancel()

	script, err := ScriptFor(cmd)
	if err != nil {
		return NewErrorResult(1, err)
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "script")
	if err != nil {
		return NewErrorResult(2, fmt.Errorf("script syntax error: %w", err))
	}

	var stdout, stderr bytes.Buffer
	env := append(os.Environ(), EnvToSlice(cmd.Env)...)
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(cmd.Stdin, &stdout, &stderr),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err))
	}

	start := time.Now()
	err = runner.Run(ctx, prog)
	result := NewSuccessResult(stdout.String(), stderr.String())
	result.Duration = time.Since(start)
	if err == nil {
		return result
	}

	if cmd.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.ExitCode = 124
		result.Error = fmt.Errorf("%s: %w after %s", displayName(cmd), ErrTimeout, cmd.Timeout)
		return result
	}

	var exitStatus interp.ExitStatus
	if errors.As(err, &exitStatus) {
		result.ExitCode = ExitCode(exitStatus)
		return result
	}
	result.ExitCode = 1
	result.Error = fmt.Errorf("script execution failed: %w", err)
	return result
}

// ScriptFor renders cmd as shell text. Arguments are quoted so they reach the
// program unchanged.
func ScriptFor(cmd *Command) (string, error) {
	if cmd.Script != "" {
		return cmd.Script, nil
	}
	if cmd.Name == "" {
		return "", errors.New("no program to execute")
	}
	words := make([]string, 0, len(cmd.Args)+1)
	for _, w := range append([]string{cmd.Name}, cmd.Args...) {
		quoted, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("cannot quote %q: %w", w, err)
		}
		words = append(words, quoted)
	}
	return strings.Join(words, " "), nil
}

// SplitFields splits a command-line string into words using POSIX shell rules,
// without performing command substitution.
func SplitFields(s string) ([]string, error) {
	fields, err := shellFields(s)
	if err != nil {
		return nil, fmt.Errorf("cannot split arguments %q: %w", s, err)
	}
	return fields, nil
}
