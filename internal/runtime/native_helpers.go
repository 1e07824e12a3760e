// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// withTimeout derives a context bounded by timeout. A zero timeout leaves ctx unchanged.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// finish converts the outcome of a completed run into a Result.
//
// Exit codes outside 0-255 (possible on Windows) are clamped to 1. A run killed
// by its own Timeout reports exit code 124 and ErrTimeout so callers can tell it
// apart from a program that failed on its own.
func finish(ctx context.Context, cmd *Command, err error, stdout, stderr string, elapsed time.Duration) *Result {
	result := NewSuccessResult(stdout, stderr)
	result.Duration = elapsed

	if err == nil {
		return result
	}

	if cmd.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.ExitCode = 124
		result.Error = fmt.Errorf("%s: %w after %s", displayName(cmd), ErrTimeout, cmd.Timeout)
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = ExitCode(exitErr.ExitCode()).Clamp()
		return result
	}

	result.ExitCode = 1
	result.Error = classifyStartError(displayName(cmd), err)
	return result
}

// classifyStartError maps "executable not found" failures onto ErrCommandNotFound.
func classifyStartError(name string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s: %w", name, ErrCommandNotFound)
	}
	return fmt.Errorf("failed to execute %s: %w", name, err)
}

func displayName(cmd *Command) string {
	if cmd.Name != "" {
		return cmd.Name
	}
	return "script"
}
