// SPDX-License-Identifier: MPL-2.0

// Package servicetest builds a Service over a linux adapter whose host
// collaborators are faked, for tests of the surfaces that sit on top of it.
package servicetest

import (
	"testing"

	"github.com/omniauto/omniauto/internal/adapter"
	"github.com/omniauto/omniauto/internal/runtime/runtimetest"
	"github.com/omniauto/omniauto/internal/service"
	"github.com/omniauto/omniauto/pkg/platform"
)

// RequestID is stamped on every result produced by a Service from New.
const RequestID = "req-test"

// Fixture is a ready Service plus the fakes behind it.
type Fixture struct {
	Service  *service.Service
	Executor *runtimetest.Executor
	// Dir is the adapter's base directory. Filesystem actions land here.
	Dir string
}

// New creates a Fixture. Extra options are applied after the defaults, so
// they can override the platform or the executor. The adapter is cleaned up
// with t.
func New(t testing.TB, opts ...adapter.Option) *Fixture {
	t.Helper()

	exec := runtimetest.New()
	dir := t.TempDir()
	base := []adapter.Option{
		adapter.WithPlatform(platform.Linux),
		adapter.WithBaseDir(dir),
		adapter.WithExecutor(exec),
		adapter.WithRuntimes(runtimetest.Registry(exec)),
		adapter.WithGUIPause(0),
		adapter.WithRequestIDs(func() string { return RequestID }),
	}
	a, err := adapter.Create(append(base, opts...)...)
	if err != nil {
		t.Fatalf("adapter.Create() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Cleanup() })

	return &Fixture{Service: service.New(a, nil), Executor: exec, Dir: dir}
}
