// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Server is a connection server driven by Listen and Shutdown. Both
// *http.Server and the wish SSH server satisfy it.
type Server interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// Listen binds address, serves srv on it in a tracked goroutine, and returns
// once the server is running. closed reports the errors Serve returns after a
// normal Shutdown; any other Serve error reaches Err.
func (b *Base) Listen(ctx context.Context, address string, srv Server, closed func(error) bool) error {
	if err := b.TransitionToStarting(ctx); err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, b.settings.startupTimeout)
	defer cancel()

	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", address)
	if err != nil {
		b.TransitionToFailed(fmt.Errorf("listen on %s: %w", address, err))
		return b.LastError()
	}

	b.srvMu.Lock()
	b.srv = srv
	b.addr = listener.Addr().String()
	b.srvMu.Unlock()

	b.AddGoroutine()
	go func() {
		defer b.DoneGoroutine()
		b.TransitionToRunning()
		err := srv.Serve(listener)
		if err == nil || errors.Is(err, net.ErrClosed) || (closed != nil && closed(err)) {
			return
		}
		b.SendError(fmt.Errorf("%s: %w", b.settings.name, err))
	}()

	select {
	case <-b.StartedChannel():
		b.settings.logger.Info(b.settings.name+" listening", "address", b.Addr())
		return nil
	case <-startupCtx.Done():
		_ = listener.Close()
		b.TransitionToFailed(fmt.Errorf("start %s: %w", b.settings.name, startupCtx.Err()))
		return b.LastError()
	}
}

// Addr is the bound address, with the resolved port when ":0" was asked for.
// It is empty before Listen succeeds.
func (b *Base) Addr() string {
	b.srvMu.Lock()
	defer b.srvMu.Unlock()
	return b.addr
}

// Shutdown stops the server started by Listen, waiting for open requests up
// to the shutdown timeout. Calling it again, or before Listen, is a no-op.
func (b *Base) Shutdown() error {
	if !b.TransitionToStopping() {
		b.WaitForShutdown()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.settings.shutdownTimeout)
	defer cancel()

	b.srvMu.Lock()
	srv := b.srv
	b.srvMu.Unlock()

	var err error
	if srv != nil {
		if err = srv.Shutdown(ctx); err != nil && !errors.Is(err, net.ErrClosed) {
			b.settings.logger.Error(b.settings.name+" shutdown", "err", err)
		} else {
			err = nil
		}
	}

	b.WaitForShutdown()
	b.TransitionToStopped()
	b.CloseErrChannel()
	b.settings.logger.Info(b.settings.name + " stopped")
	return err
}

// Wait blocks until the server's goroutines exit and returns the failure
// that stopped it, if any.
func (b *Base) Wait() error {
	b.WaitForShutdown()
	if b.State() == StateFailed {
		return b.LastError()
	}
	return nil
}
