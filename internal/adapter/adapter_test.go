// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"testing"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter/network"
	"github.com/omniauto/omniauto/internal/adapter/process"
	"github.com/omniauto/omniauto/internal/adapter/system"
	"github.com/omniauto/omniauto/internal/runtime/runtimetest"
	"github.com/omniauto/omniauto/pkg/platform"
)

type (
	countingTable struct{ calls atomic.Int32 }

	countingProbe struct{ calls atomic.Int32 }

	countingInspector struct{ calls atomic.Int32 }

	countingUploader struct{ calls atomic.Int32 }

	countingTransport struct{ calls atomic.Int32 }

	// collaborators records every call a module makes outside itself.
	collaborators struct {
		exec      *runtimetest.Executor
		table     *countingTable
		probe     *countingProbe
		inspector *countingInspector
		uploader  *countingUploader
		transport *countingTransport
		dir       string
	}
)

func (c *countingTable) List(context.Context) ([]process.Info, error) {
	c.calls.Add(1)
	return nil, nil
}

func (c *countingTable) Get(context.Context, int32) (process.Info, error) {
	c.calls.Add(1)
	return process.Info{}, process.ErrNoSuchProcess
}

func (c *countingTable) Terminate(context.Context, int32) error {
	c.calls.Add(1)
	return nil
}

func (c *countingProbe) Snapshot(context.Context) (system.Snapshot, error) {
	c.calls.Add(1)
	return system.Snapshot{}, nil
}

func (c *countingInspector) Interfaces(context.Context) ([]network.Interface, error) {
	c.calls.Add(1)
	return nil, nil
}

func (c *countingInspector) Counters(context.Context) (network.Counters, error) {
	c.calls.Add(1)
	return network.Counters{}, nil
}

func (c *countingUploader) Upload(context.Context, network.SFTPTarget, string, string) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, errors.New("unexpected request")
}

func (c *collaborators) total() int {
	return len(c.exec.Calls()) +
		int(c.table.calls.Load()) +
		int(c.probe.calls.Load()) +
		int(c.inspector.calls.Load()) +
		int(c.uploader.calls.Load()) +
		int(c.transport.calls.Load())
}

func newFakes(t *testing.T) *collaborators {
	t.Helper()
	return &collaborators{
		exec:      runtimetest.New(),
		table:     &countingTable{},
		probe:     &countingProbe{},
		inspector: &countingInspector{},
		uploader:  &countingUploader{},
		transport: &countingTransport{},
		dir:       t.TempDir(),
	}
}

func (c *collaborators) options(id platform.Identity) []Option {
	return []Option{
		WithPlatform(id),
		WithBaseDir(c.dir),
		WithExecutor(c.exec),
		WithRuntimes(runtimetest.Registry(c.exec)),
		WithProcessTable(c.table),
		WithSystemProbe(c.probe),
		WithNetworkInspector(c.inspector),
		WithUploader(c.uploader),
		WithHTTPClient(&http.Client{Transport: c.transport}),
		WithGUIPause(0),
	}
}

func TestCreateEachPlatform(t *testing.T) {
	t.Parallel()

	for _, id := range SupportedPlatforms() {
		t.Run(string(id), func(t *testing.T) {
			t.Parallel()

			fakes := newFakes(t)
			a, err := Create(fakes.options(id)...)
			if err != nil {
				t.Fatalf("Create(%s) error = %v", id, err)
			}
			t.Cleanup(func() { _ = a.Cleanup() })

			if a.Platform() != id {
				t.Errorf("Platform() = %q, want %q", a.Platform(), id)
			}

			var variantOK bool
			switch id {
			case platform.Windows:
				_, variantOK = a.(*windowsAdapter)
			case platform.Linux:
				_, variantOK = a.(*linuxAdapter)
			case platform.Darwin:
				_, variantOK = a.(*darwinAdapter)
			}
			if !variantOK {
				t.Errorf("Create(%s) returned %T", id, a)
			}

			named := []action.ModuleAdapter{a.Filesystem(), a.Process(), a.GUI(), a.System(), a.Network()}
			modules := a.Modules()
			if len(modules) != len(action.AllCapabilities()) {
				t.Fatalf("Modules() len = %d, want %d", len(modules), len(action.AllCapabilities()))
			}
			for i, c := range action.AllCapabilities() {
				m := modules[i]
				if m == nil || named[i] == nil {
					t.Fatalf("module %s is nil", c)
				}
				if m.Capability() != c {
					t.Errorf("Modules()[%d].Capability() = %q, want %q", i, m.Capability(), c)
				}
				if len(m.Capabilities()) == 0 {
					t.Errorf("%s module has no actions", c)
				}
				byName, err := a.Module(c)
				if err != nil || byName != m {
					t.Errorf("Module(%s) = %v, %v", c, byName, err)
				}
			}
		})
	}
}

func TestCreateUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	for _, id := range []platform.Identity{"freebsd", "plan9", "Linux "} {
		_, err := Create(WithPlatform(id))
		if !errors.Is(err, action.ErrUnsupportedPlatform) {
			t.Fatalf("Create(%q) error = %v, want ErrUnsupportedPlatform", id, err)
		}
		var upErr *action.UnsupportedPlatformError
		if !errors.As(err, &upErr) || upErr.Platform != string(id) {
			t.Errorf("Create(%q) error = %#v, want platform %q", id, err, id)
		}
		if action.KindOf(err) != action.KindUnsupportedPlatform {
			t.Errorf("KindOf = %q", action.KindOf(err))
		}
	}
}

func TestCreateDetectsHost(t *testing.T) {
	t.Parallel()

	a, err := Create(WithGUIPause(0))
	host := platform.Detect()
	if host.Validate() != nil {
		if !errors.Is(err, action.ErrUnsupportedPlatform) {
			t.Fatalf("Create() on %s error = %v, want ErrUnsupportedPlatform", host, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer func() { _ = a.Cleanup() }()
	if a.Platform() != host {
		t.Errorf("Platform() = %q, want %q", a.Platform(), host)
	}
}

func TestSupportedPlatformsStable(t *testing.T) {
	t.Parallel()

	want := []platform.Identity{platform.Windows, platform.Linux, platform.Darwin}
	for range 3 {
		got := SupportedPlatforms()
		if len(got) != len(want) {
			t.Fatalf("SupportedPlatforms() = %v", got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("SupportedPlatforms() = %v, want %v", got, want)
			}
		}
	}
}

func TestUnknownActionNeverReachesCollaborators(t *testing.T) {
	t.Parallel()

	for _, id := range SupportedPlatforms() {
		t.Run(string(id), func(t *testing.T) {
			t.Parallel()

			fakes := newFakes(t)
			a, err := Create(fakes.options(id)...)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			for _, m := range a.Modules() {
				for _, name := range []string{"format_disk", "", "   ", "CREATE_FOLDER", "list "} {
					res := m.Execute(context.Background(), name, action.Params{"name": "x", "url": "http://x"})
					if res.Success {
						t.Errorf("%s.%q succeeded", m.Capability(), name)
					}
					wantKind := action.KindUnknownAction
					if name == "" || name == "   " {
						wantKind = action.KindValidation
					}
					if res.Kind != wantKind {
						t.Errorf("%s.%q kind = %q, want %q", m.Capability(), name, res.Kind, wantKind)
					}
				}
			}
			if n := fakes.total(); n != 0 {
				t.Errorf("collaborators called %d times", n)
			}
			assertEmptyDir(t, fakes.dir)
		})
	}
}

func TestMissingRequiredParamsNeverReachCollaborators(t *testing.T) {
	t.Parallel()

	for _, id := range SupportedPlatforms() {
		t.Run(string(id), func(t *testing.T) {
			t.Parallel()

			fakes := newFakes(t)
			a, err := Create(fakes.options(id)...)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			for _, m := range a.Modules() {
				for _, spec := range m.Describe() {
					if len(spec.Required()) == 0 {
						continue
					}
					res := m.Execute(context.Background(), spec.Name, action.Params{})
					if res.Kind != action.KindValidation {
						t.Errorf("%s.%s with no params kind = %q, want validation", m.Capability(), spec.Name, res.Kind)
					}
				}
			}
			if n := fakes.total(); n != 0 {
				t.Errorf("collaborators called %d times", n)
			}
			assertEmptyDir(t, fakes.dir)
		})
	}
}

func TestMaxRiskAppliesToEveryModule(t *testing.T) {
	t.Parallel()

	fakes := newFakes(t)
	a, err := Create(append(fakes.options(platform.Linux), WithMaxRisk(action.RiskSafe))...)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res := a.Process().Execute(context.Background(), "terminate", action.Params{"pid": 1})
	if res.Kind != action.KindPermissionDenied {
		t.Errorf("terminate kind = %q, want permission_denied", res.Kind)
	}
	res = a.System().Execute(context.Background(), "get_info", nil)
	if !res.Success {
		t.Errorf("get_info failed: %s", res.Error)
	}
	if fakes.table.calls.Load() != 0 {
		t.Error("terminate reached the process table")
	}
}

func TestModuleRejectsUnknownCapability(t *testing.T) {
	t.Parallel()

	fakes := newFakes(t)
	a, err := Create(fakes.options(platform.Darwin)...)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := a.Module("bluetooth"); !errors.Is(err, action.ErrValidation) {
		t.Errorf("Module(bluetooth) error = %v, want validation error", err)
	}
}

func TestCleanupIdempotent(t *testing.T) {
	t.Parallel()

	fakes := newFakes(t)
	a, err := Create(fakes.options(platform.Windows)...)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for range 2 {
		if err := a.Cleanup(); err != nil {
			t.Errorf("Cleanup() error = %v", err)
		}
	}
}

func TestBuildFailsWithoutPartialAdapter(t *testing.T) {
	t.Parallel()

	var cleaned atomic.Bool
	base := &baseAdapter{id: platform.Linux, modules: make(map[action.Capability]action.ModuleAdapter)}
	base.onCleanup(func() error {
		cleaned.Store(true)
		return nil
	})
	boom := errors.New("boom")
	err := base.build(defaultSettings(), map[action.Capability]factory{
		action.CapabilityFilesystem: func(*settings) (action.ModuleAdapter, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("build() error = %v, want boom", err)
	}

	err = base.build(defaultSettings(), map[action.Capability]factory{
		action.CapabilityFilesystem: func(*settings) (action.ModuleAdapter, error) { return nil, nil },
	})
	if !errors.Is(err, ErrNilModule) {
		t.Fatalf("build() error = %v, want ErrNilModule", err)
	}

	if err := base.Cleanup(); err != nil || !cleaned.Load() {
		t.Errorf("Cleanup() = %v, cleaned = %v", err, cleaned.Load())
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries in %s, found %d", dir, len(entries))
	}
}
