// SPDX-License-Identifier: MPL-2.0

package system

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/internal/runtime/runtimetest"
	"github.com/omniauto/omniauto/pkg/platform"
)

type fakeProbe struct {
	snap Snapshot
	err  error
}

func (f fakeProbe) Snapshot(context.Context) (Snapshot, error) { return f.snap, f.err }

func newModule(t *testing.T, id platform.Identity, mutate ...func(*Options)) (*Module, *runtimetest.Executor) {
	t.Helper()
	exec := runtimetest.New()
	opts := Options{
		Platform: id,
		Executor: exec,
		Probe: fakeProbe{snap: Snapshot{
			Hostname: "build-01", OS: "linux", Platform: "ubuntu", KernelVersion: "6.8.0",
			Arch: "x86_64", CPUModel: "Test CPU", CPULogical: 8, CPUCores: 4,
			MemTotal: 16 << 30, MemAvailable: 8 << 30,
			Disk: DiskUsage{Path: "/", Total: 100, Used: 40, Free: 60, UsedPercent: 40},
		}},
		OSRelease: filepath.Join(t.TempDir(), "missing"),
		Environ: func() []string {
			return []string{"HOME=/home/alice", "OMNI_MODE=test", "OMNI_LEVEL=3", "Path=C:\\bin", "=C:=C:\\"}
		},
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	m, err := New(opts)
	require.NoError(t, err)
	return m, exec
}

func run(m *Module, name string, params action.Params) *action.Result {
	return m.Execute(context.Background(), name, params)
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	m, _ := newModule(t, platform.Windows)
	assert.Equal(t, action.CapabilitySystem, m.Capability())
	assert.Equal(t, []string{"get_info", "set_volume", "power_action", "env", "service"}, m.Capabilities())
}

func TestNewRejectsUnknownPlatform(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Platform: "plan9"})
	assert.ErrorIs(t, err, platform.ErrInvalidIdentity)
}

func TestGetInfo(t *testing.T) {
	t.Parallel()

	t.Run("linux includes distro info", func(t *testing.T) {
		t.Parallel()
		release := filepath.Join(t.TempDir(), "os-release")
		require.NoError(t, os.WriteFile(release, []byte("NAME=\"Ubuntu\"\nVERSION_ID=\"24.04\"\nID=ubuntu\n"), 0o644))
		m, _ := newModule(t, platform.Linux, func(o *Options) { o.OSRelease = release })

		res := run(m, "get_info", nil)
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "build-01", res.Payload["hostname"])
		assert.Equal(t, 8, res.Payload["cpu_count"])
		distro, ok := res.Payload["distro_info"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "Ubuntu", distro["NAME"])
		assert.Equal(t, "24.04", distro["VERSION_ID"])
	})

	t.Run("missing os-release is empty", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t, platform.Linux)

		res := run(m, "get_info", nil)
		require.True(t, res.Success, res.Error)
		assert.Equal(t, map[string]string{}, res.Payload["distro_info"])
	})

	t.Run("windows omits distro info", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t, platform.Windows)

		res := run(m, "get_info", nil)
		require.True(t, res.Success, res.Error)
		assert.NotContains(t, res.Payload, "distro_info")
	})

	t.Run("probe failure", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t, platform.Darwin, func(o *Options) { o.Probe = fakeProbe{err: errors.New("sysctl failed")} })

		res := run(m, "get_info", nil)
		assert.Equal(t, action.KindOperationFailure, res.Kind)
		assert.Nil(t, res.Payload)
	})
}

func TestSetVolume(t *testing.T) {
	t.Parallel()

	t.Run("clamps and uses pactl", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)

		res := run(m, "set_volume", action.Params{"level": 150})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, 100, res.Payload["level"])
		assert.Equal(t, 150, res.Payload["requested_level"])
		assert.Equal(t, []string{"pactl set-sink-volume @DEFAULT_SINK@ 100%"}, exec.CommandLines())
	})

	t.Run("falls back to amixer when pactl fails", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)
		exec.Fail("pactl", 1, "Connection failure")

		res := run(m, "set_volume", action.Params{"level": -5})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, 0, res.Payload["level"])
		assert.Equal(t, "amixer", res.Payload["tool"])
		assert.Equal(t, []string{
			"pactl set-sink-volume @DEFAULT_SINK@ 0%",
			"amixer set Master 0%",
		}, exec.CommandLines())
	})

	t.Run("windows scales for nircmd", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Windows)

		res := run(m, "set_volume", action.Params{"volume": "50"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, []string{"nircmd setsysvolume 32767"}, exec.CommandLines())
	})

	t.Run("no tools", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)
		exec.Missing("pactl", "amixer")

		res := run(m, "set_volume", action.Params{"level": 20})
		assert.Equal(t, action.KindOperationFailure, res.Kind)
		assert.Contains(t, res.Error, "no volume control method available")
	})
}

func TestPowerAction(t *testing.T) {
	t.Parallel()

	allow := func(o *Options) { o.AllowPowerActions = true }

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)

		res := run(m, "power_action", action.Params{"action": "reboot"})
		assert.Equal(t, action.KindPermissionDenied, res.Kind)
		assert.Empty(t, exec.Calls())
	})

	tests := []struct {
		id     platform.Identity
		action string
		want   string
	}{
		{platform.Linux, "poweroff", "sudo shutdown -h now"},
		{platform.Linux, "Reboot", "sudo reboot"},
		{platform.Linux, "suspend", "sudo systemctl suspend"},
		{platform.Windows, "shutdown", "shutdown /s /t 0"},
		{platform.Windows, "restart", "shutdown /r /t 0"},
		{platform.Windows, "hibernate", "shutdown /h"},
		{platform.Darwin, "suspend", "pmset sleepnow"},
	}
	for _, tt := range tests {
		t.Run(string(tt.id)+" "+tt.action, func(t *testing.T) {
			t.Parallel()
			m, exec := newModule(t, tt.id, allow)

			res := run(m, "power_action", action.Params{"action": tt.action})
			require.True(t, res.Success, res.Error)
			assert.Equal(t, []string{tt.want}, exec.CommandLines())
		})
	}

	t.Run("unavailable on platform", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Windows, allow)

		res := run(m, "power_action", action.Params{"action": "suspend"})
		assert.Equal(t, action.KindValidation, res.Kind)
		assert.Contains(t, res.Error, "hibernate")
		assert.Empty(t, exec.Calls())
	})

	t.Run("unknown action", func(t *testing.T) {
		t.Parallel()
		m, _ := newModule(t, platform.Linux, allow)

		res := run(m, "power_action", action.Params{"action": "explode"})
		assert.Equal(t, action.KindValidation, res.Kind)
	})
}

func TestEnv(t *testing.T) {
	t.Parallel()

	m, _ := newModule(t, platform.Linux)
	res := run(m, "env", action.Params{"prefix": "OMNI_"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, map[string]string{"OMNI_MODE": "test", "OMNI_LEVEL": "3"}, res.Payload["variables"])
	assert.Equal(t, []string{"OMNI_LEVEL", "OMNI_MODE"}, res.Payload["names"])

	res = run(m, "env", action.Params{"prefix": "path"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0, res.Payload["count"])

	win, _ := newModule(t, platform.Windows)
	res = run(win, "env", action.Params{"prefix": "path"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, map[string]string{"Path": `C:\bin`}, res.Payload["variables"])

	res = run(win, "env", nil)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 4, res.Payload["count"])
}

func TestService(t *testing.T) {
	t.Parallel()

	t.Run("linux inactive status is not a failure", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)
		exec.Respond("systemctl", runtime.NewExitCodeResult(3, "inactive\n", ""))

		res := run(m, "service", action.Params{"name": "nginx", "operation": "status"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "inactive", res.Payload["state"])
		assert.Equal(t, []string{"systemctl is-active nginx"}, exec.CommandLines())
	})

	t.Run("windows status parses sc output", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Windows)
		exec.Respond("sc", runtime.NewSuccessResult("SERVICE_NAME: Spooler\r\n        TYPE               : 110  WIN32_OWN_PROCESS\r\n        STATE              : 4  RUNNING\r\n", ""))

		res := run(m, "service", action.Params{"service": "Spooler", "operation": "STATUS"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "running", res.Payload["state"])
	})

	t.Run("darwin restart stops then starts", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Darwin)

		res := run(m, "service", action.Params{"name": "com.example.agent", "operation": "restart"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, []string{
			"launchctl stop com.example.agent",
			"launchctl start com.example.agent",
		}, exec.CommandLines())
	})

	t.Run("control failure", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)
		exec.Fail("systemctl", 5, "Unit nope.service not found.")

		res := run(m, "service", action.Params{"name": "nope", "operation": "start"})
		assert.Equal(t, action.KindOperationFailure, res.Kind)
		assert.Contains(t, res.Error, "not found")
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)

		for _, params := range []action.Params{
			{"name": "--force", "operation": "stop"},
			{"name": "nginx; rm -rf /", "operation": "stop"},
			{"name": "nginx", "operation": "enable"},
		} {
			res := run(m, "service", params)
			assert.Equal(t, action.KindValidation, res.Kind, "params %v", params)
		}
		assert.Empty(t, exec.Calls())
	})
}
