// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrWaitTimeout is returned by WaitFor when nothing matched before the deadline.
var ErrWaitTimeout = errors.New("timed out waiting for path")

// WaitFor blocks until a path matching pattern exists under baseDir, returning
// the first match relative to baseDir. Existing matches return immediately.
// A zero timeout waits until ctx is done.
func WaitFor(ctx context.Context, baseDir, pattern string, timeout time.Duration) (string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return "", fmt.Errorf("watch: invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if match, ok := firstMatch(baseDir, pattern); ok {
		return match, nil
	}

	found := make(chan string, 1)
	w, err := New(Config{
		BaseDir:  baseDir,
		Patterns: []string{pattern},
		Debounce: 20 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			for _, rel := range changed {
				if _, statErr := os.Stat(filepath.Join(baseDir, filepath.FromSlash(rel))); statErr == nil {
					select {
					case found <- rel:
					default:
					}
					return nil
				}
			}
			return nil
		},
	})
	if err != nil {
		return "", err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(runCtx) }()

	// Re-check after the watch is armed to close the gap between the first
	// glob and fsnotify registration.
	if match, ok := firstMatch(baseDir, pattern); ok {
		return match, nil
	}

	select {
	case rel := <-found:
		return rel, nil
	case err := <-runErr:
		if err == nil {
			err = ctx.Err()
		}
		return "", err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w %q after %s", ErrWaitTimeout, pattern, timeout)
		}
		return "", ctx.Err()
	}
}

func firstMatch(baseDir, pattern string) (string, bool) {
	matches, err := doublestar.Glob(os.DirFS(baseDir), pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}
