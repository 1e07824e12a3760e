// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
)

func TestListenServesUntilShutdown(t *testing.T) {
	t.Parallel()

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})}
	b := NewBase(WithName("test server"))

	if err := b.Listen(context.Background(), "127.0.0.1:0", srv, func(err error) bool {
		return errors.Is(err, http.ErrServerClosed)
	}); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if !b.IsRunning() {
		t.Fatalf("state = %s, want running", b.State())
	}
	if strings.HasSuffix(b.Addr(), ":0") {
		t.Fatalf("Addr() = %q, want a resolved port", b.Addr())
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/", b.Addr()))
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}

	if err := b.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if b.State() != StateStopped {
		t.Errorf("state = %s, want stopped", b.State())
	}
	if err := b.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if err := b.Wait(); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
	if _, open := <-b.Err(); open {
		t.Error("Err() still open after Shutdown")
	}
}

func TestListenBindFailure(t *testing.T) {
	t.Parallel()

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	t.Cleanup(func() { _ = taken.Close() })

	b := NewBase()
	err = b.Listen(context.Background(), taken.Addr().String(), &http.Server{}, nil)
	if err == nil {
		t.Fatal("Listen() on a taken port succeeded")
	}
	if b.State() != StateFailed {
		t.Errorf("state = %s, want failed", b.State())
	}
	if !errors.Is(b.Wait(), err) {
		t.Errorf("Wait() = %v, want %v", b.Wait(), err)
	}
}

func TestShutdownBeforeListen(t *testing.T) {
	t.Parallel()

	b := NewBase()
	if err := b.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if b.Addr() != "" {
		t.Errorf("Addr() = %q, want empty", b.Addr())
	}
}
