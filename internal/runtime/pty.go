// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"io"
	goruntime "runtime"
	"time"

	"github.com/creack/pty"
)

var _ Runtime = (*PTYRuntime)(nil)

// PTYRuntime executes programs attached to a pseudo-terminal, for tools that
// change behavior (or refuse to run) without a TTY. Stdout and stderr are
// merged into Result.Output because a terminal has a single output stream.
type PTYRuntime struct {
	native *NativeRuntime
}

// NewPTYRuntime creates a PTY runtime that builds commands like native.
func NewPTYRuntime(native *NativeRuntime) *PTYRuntime {
	if native == nil {
		native = NewNativeRuntime()
	}
	return &PTYRuntime{native: native}
}

// Name returns the runtime name.
func (r *PTYRuntime) Name() string { return string(RuntimeTypePTY) }

// Available returns false on Windows, where creack/pty has no implementation.
func (r *PTYRuntime) Available() bool { return goruntime.GOOS != "windows" }

// Run executes cmd on a new PTY and waits for it to exit.
func (r *PTYRuntime) Run(ctx context.Context, cmd *Command) *Result {
	ctx, cancel := withTimeout(ctx, cmd.Timeout)
	defer cancel()

	c, err := r.native.command(ctx, cmd)
	if err != nil {
		return NewErrorResult(1, err)
	}

	start := time.Now()
	f, err := pty.Start(c)
	if err != nil {
		return NewErrorResult(1, classifyStartError(displayName(cmd), err))
	}
	defer func() { _ = f.Close() }()

	if cmd.Stdin != nil {
		go func() { _, _ = io.Copy(f, cmd.Stdin) }()
	}

	var out bytes.Buffer
	// Reading the master returns EIO on Linux once the child closes its side,
	// so the copy error carries no information.
	_, _ = io.Copy(&out, f)

	err = c.Wait()
	return finish(ctx, cmd, err, out.String(), "", time.Since(start))
}
