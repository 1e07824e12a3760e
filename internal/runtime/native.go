// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/omniauto/omniauto/pkg/platform"
)

var (
	_ Runtime  = (*NativeRuntime)(nil)
	_ Executor = (*NativeRuntime)(nil)
)

type (
	// NativeRuntime executes host programs directly, or shell text through the
	// system's default shell.
	NativeRuntime struct {
		// Shell overrides the default shell used for Command.Script.
		Shell string
		// ShellArgs are arguments passed to the shell before the script.
		ShellArgs []string

		sandbox  platform.SandboxType
		lookPath func(string) (string, error)
	}

	// NativeOption configures a NativeRuntime.
	NativeOption func(*NativeRuntime)
)

// WithShell overrides the shell used for scripts.
func WithShell(shell string, args ...string) NativeOption {
	return func(r *NativeRuntime) {
		r.Shell = shell
		r.ShellArgs = args
	}
}

// WithSandbox routes every program through the sandbox's host spawn command.
func WithSandbox(st platform.SandboxType) NativeOption {
	return func(r *NativeRuntime) { r.sandbox = st }
}

// NewNativeRuntime creates a new native runtime.
func NewNativeRuntime(opts ...NativeOption) *NativeRuntime {
	r := &NativeRuntime{lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() string { return string(RuntimeTypeNative) }

// Available returns whether this runtime is available. Direct program execution
// is always possible.
func (r *NativeRuntime) Available() bool { return true }

// LookPath reports where name resolves on PATH.
func (r *NativeRuntime) LookPath(name string) (string, error) {
	path, err := r.lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrCommandNotFound)
	}
	return path, nil
}

// Run executes cmd to completion, capturing stdout and stderr.
func (r *NativeRuntime) Run(ctx context.Context, cmd *Command) *Result {
	ctx, cancel := withTimeout(ctx, cmd.Timeout)
	defer cancel()

	c, err := r.command(ctx, cmd)
	if err != nil {
		return NewErrorResult(1, err)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.Stdin = cmd.Stdin

	start := time.Now()
	err = c.Run()
	return finish(ctx, cmd, err, stdout.String(), stderr.String(), time.Since(start))
}

// Start launches cmd without waiting for it. The process is reaped in the
// background and is not bound to ctx, so it outlives the calling action.
func (r *NativeRuntime) Start(ctx context.Context, cmd *Command) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	//nolint:contextcheck // detached processes must survive the request context
	c, err := r.command(context.Background(), cmd)
	if err != nil {
		return 0, err
	}
	c.Stdin = cmd.Stdin
	if err := c.Start(); err != nil {
		return 0, classifyStartError(cmd.Name, err)
	}
	pid := c.Process.Pid
	go func() { _ = c.Wait() }() // reap; exit status of detached processes is not reported
	return pid, nil
}

// command builds the exec.Cmd for cmd, applying the shell for scripts and the
// sandbox prefix for everything.
func (r *NativeRuntime) command(ctx context.Context, cmd *Command) (*exec.Cmd, error) {
	name, args := cmd.Name, cmd.Args
	if cmd.Script != "" {
		shell, err := r.getShell()
		if err != nil {
			return nil, err
		}
		name = shell
		args = append(r.getShellArgs(shell), cmd.Script)
	}
	if name == "" {
		return nil, errors.New("no program to execute")
	}

	name, args = platform.HostCommand(r.sandbox, name, args)
	c := exec.CommandContext(ctx, name, args...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), EnvToSlice(cmd.Env)...)
	}
	return c, nil
}

// getShell determines which shell to use.
func (r *NativeRuntime) getShell() (string, error) {
	if r.Shell != "" {
		return r.Shell, nil
	}

	switch goruntime.GOOS {
	case "windows":
		// Try PowerShell first, then cmd
		if pwsh, err := r.lookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := r.lookPath("powershell"); err == nil {
			return ps, nil
		}
		return r.lookPath("cmd")
	default:
		if shell := os.Getenv("SHELL"); shell != "" {
			return shell, nil
		}
		if bash, err := r.lookPath("bash"); err == nil {
			return bash, nil
		}
		if sh, err := r.lookPath("sh"); err == nil {
			return sh, nil
		}
		return "", fmt.Errorf("shell: %w", ErrCommandNotFound)
	}
}

// getShellArgs returns the arguments to pass to the shell before the script.
func (r *NativeRuntime) getShellArgs(shell string) []string {
	if len(r.ShellArgs) > 0 {
		return append([]string(nil), r.ShellArgs...)
	}

	base := filepath.Base(shell)
	if lastSlash := strings.LastIndex(base, "\\"); lastSlash >= 0 {
		base = base[lastSlash+1:]
	}
	base = strings.TrimSuffix(strings.ToLower(base), ".exe")

	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-NonInteractive", "-Command"}
	default:
		return []string{"-c"}
	}
}
