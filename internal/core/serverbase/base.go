// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base holds the lifecycle state shared by the action servers. Concrete
// servers embed it and drive it through the Transition* methods, or hand a
// Server to Listen and Shutdown.
//
// A Base is single-use: once stopped or failed, create a new one.
type Base struct {
	state   atomic.Int32
	stateMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedCh chan struct{}
	errCh     chan error
	lastErr   error

	settings settings
	srvMu    sync.Mutex
	srv      Server
	addr     string
}

// NewBase creates a Base in StateCreated.
func NewBase(opts ...Option) *Base {
	b := &Base{
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
		settings:  defaultSettings(),
	}
	b.state.Store(int32(StateCreated))
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current lifecycle state.
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning reports whether the server is accepting requests.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns the channel that receives errors raised after Start returned.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that moved the server to StateFailed.
func (b *Base) LastError() error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.lastErr
}

// TransitionToStarting moves Created to Starting. It fails when ctx is
// already done or the server was started before.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	// Checked first so a cancelled start never reaches StateRunning.
	select {
	case <-ctx.Done():
		b.TransitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return b.LastError()
	default:
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start %s in state %s", b.settings.name, b.State())
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// TransitionToRunning moves Starting to Running and releases WaitForReady.
func (b *Base) TransitionToRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.startedCh)
	}
}

// TransitionToFailed records err and moves to the terminal Failed state.
func (b *Base) TransitionToFailed(err error) {
	b.stateMu.Lock()
	b.lastErr = err
	b.stateMu.Unlock()

	b.state.Store(int32(StateFailed))
	if b.cancel != nil {
		b.cancel()
	}
	b.SendError(err)
}

// TransitionToStopping moves a live server to Stopping and cancels its
// context. It returns false when there is nothing to stop.
func (b *Base) TransitionToStopping() bool {
	for {
		current := b.State()
		switch current {
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				if b.cancel != nil {
					b.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

// TransitionToStopped marks the server stopped. Call it after every tracked
// goroutine has exited.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// WaitForReady blocks until the server is running or ctx is done.
func (b *Base) WaitForReady(ctx context.Context) error {
	select {
	case <-b.startedCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s: %w", b.settings.name, ctx.Err())
	}
}

// WaitForShutdown blocks until every tracked goroutine has returned.
func (b *Base) WaitForShutdown() {
	b.wg.Wait()
}

// Context is cancelled when the server stops. It is nil before Start.
func (b *Base) Context() context.Context {
	return b.ctx
}

// AddGoroutine tracks one goroutine. Call it before the go statement.
func (b *Base) AddGoroutine() {
	b.wg.Add(1)
}

// DoneGoroutine releases a goroutine tracked by AddGoroutine.
func (b *Base) DoneGoroutine() {
	b.wg.Done()
}

// SendError delivers err to Err without blocking. It is dropped when the
// channel is full.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}

// CloseErrChannel closes the channel returned by Err.
func (b *Base) CloseErrChannel() {
	close(b.errCh)
}

// StartedChannel is closed when the server reaches StateRunning.
func (b *Base) StartedChannel() <-chan struct{} {
	return b.startedCh
}
