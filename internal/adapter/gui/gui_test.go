// SPDX-License-Identifier: MPL-2.0

package gui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/runtime/runtimetest"
	"github.com/omniauto/omniauto/pkg/platform"
)

func newModule(t *testing.T, id platform.Identity) (*Module, *runtimetest.Executor) {
	t.Helper()
	exec := runtimetest.New()
	m, err := New(Options{
		Platform:      id,
		Executor:      exec,
		ScreenshotDir: "/shots",
		Now:           func() time.Time { return time.Unix(1700000000, 0) },
	})
	require.NoError(t, err)
	return m, exec
}

func run(m *Module, name string, params action.Params) *action.Result {
	return m.Execute(context.Background(), name, params)
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	m, _ := newModule(t, platform.Linux)
	assert.Equal(t, action.CapabilityGUI, m.Capability())
	assert.Equal(t, []string{"click", "move_mouse", "type", "press_key", "screenshot", "wait"}, m.Capabilities())
}

func TestClick(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id     platform.Identity
		params action.Params
		want   string
	}{
		{platform.Linux, action.Params{"x": 100, "y": 200}, "xdotool mousemove --sync 100 200 click 1"},
		{platform.Linux, action.Params{"button": "right"}, "xdotool click 3"},
		{platform.Darwin, action.Params{"x": 5, "y": 6}, "cliclick c:5,6"},
		{platform.Darwin, action.Params{"button": "right"}, "cliclick rc:."},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			m, exec := newModule(t, tt.id)

			res := run(m, "click", tt.params)
			require.True(t, res.Success, res.Error)
			assert.Equal(t, []string{tt.want}, exec.CommandLines())
		})
	}
}

func TestClickWindows(t *testing.T) {
	t.Parallel()

	m, exec := newModule(t, platform.Windows)
	res := run(m, "click", action.Params{"x": 10, "y": 20, "button": "middle"})
	require.True(t, res.Success, res.Error)

	calls := exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "powershell", calls[0].Command.Name)
	script := calls[0].Command.Args[len(calls[0].Command.Args)-1]
	assert.Contains(t, script, "System.Drawing.Point(10, 20)")
	assert.Contains(t, script, "mouse_event(32,0,0,0,0)")
}

func TestClickValidation(t *testing.T) {
	t.Parallel()

	m, exec := newModule(t, platform.Linux)

	for _, params := range []action.Params{
		{"x": 10},
		{"y": 10},
		{"x": -1, "y": 0},
		{"x": "left", "y": 0},
		{"button": "back"},
	} {
		res := run(m, "click", params)
		assert.Equal(t, action.KindValidation, res.Kind, "params %v", params)
	}
	assert.Empty(t, exec.Calls())
}

func TestMiddleClickUnsupportedOnMac(t *testing.T) {
	t.Parallel()

	m, exec := newModule(t, platform.Darwin)
	res := run(m, "click", action.Params{"button": "middle"})
	assert.Equal(t, action.KindOperationFailure, res.Kind)
	assert.ErrorIs(t, res.Err(), ErrUnsupportedInput)
	assert.Empty(t, exec.Calls())
}

func TestTypeAndPress(t *testing.T) {
	t.Parallel()

	m, exec := newModule(t, platform.Linux)

	res := run(m, "type", action.Params{"text": "-hello"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 6, res.Payload["characters"])

	res = run(m, "press_key", action.Params{"key": "Ctrl+Shift+Esc"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "ctrl+shift+escape", res.Payload["key"])

	assert.Equal(t, []string{
		"xdotool type --delay 12 -- -hello",
		"xdotool key -- ctrl+shift+Escape",
	}, exec.CommandLines())
}

func TestPressKeyMac(t *testing.T) {
	t.Parallel()

	m, exec := newModule(t, platform.Darwin)

	res := run(m, "press_key", action.Params{"key": "cmd+s"})
	require.True(t, res.Success, res.Error)
	res = run(m, "press_key", action.Params{"key": "enter"})
	require.True(t, res.Success, res.Error)

	assert.Equal(t, []string{
		`osascript -e tell application "System Events" to keystroke "s" using {command down}`,
		`osascript -e tell application "System Events" to key code 36`,
	}, exec.CommandLines())
}

func TestPressKeyInvalid(t *testing.T) {
	t.Parallel()

	m, exec := newModule(t, platform.Linux)
	for _, key := range []string{"hyper+a", "ctrl+", "notakey"} {
		res := run(m, "press_key", action.Params{"key": key})
		assert.Equal(t, action.KindValidation, res.Kind, key)
	}
	assert.Empty(t, exec.Calls())
}

func TestScreenshot(t *testing.T) {
	t.Parallel()

	t.Run("default name", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Darwin)

		res := run(m, "screenshot", nil)
		require.True(t, res.Success, res.Error)
		want := filepath.Join("/shots", "screenshot_1700000000.png")
		assert.Equal(t, want, res.Payload["path"])
		assert.Equal(t, []string{"screencapture -x " + want}, exec.CommandLines())
	})

	t.Run("falls back to import when scrot is missing", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)
		exec.Missing("scrot")

		res := run(m, "screenshot", action.Params{"filename": "desk.png"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "import", res.Payload["tool"])
	})

	t.Run("no tool installed", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)
		exec.Missing("scrot", "import", "gnome-screenshot")

		res := run(m, "screenshot", nil)
		assert.Equal(t, action.KindOperationFailure, res.Kind)
		assert.ErrorIs(t, res.Err(), ErrNoTool)
	})

	t.Run("tool failure", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Darwin)
		exec.Fail("screencapture", 1, "could not create image from display")

		res := run(m, "screenshot", nil)
		assert.Equal(t, action.KindOperationFailure, res.Kind)
		assert.Contains(t, res.Error, "could not create image")
	})

	t.Run("traversal rejected", func(t *testing.T) {
		t.Parallel()
		m, exec := newModule(t, platform.Linux)

		res := run(m, "screenshot", action.Params{"filename": "../../etc/shot.png"})
		assert.Equal(t, action.KindValidation, res.Kind)
		assert.Empty(t, exec.Calls())
	})
}

func TestWait(t *testing.T) {
	t.Parallel()

	m, _ := newModule(t, platform.Linux)

	res := run(m, "wait", action.Params{"duration": 0.01})
	require.True(t, res.Success, res.Error)
	assert.InDelta(t, 0.01, res.Payload["waited_seconds"], 0.0001)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = m.Execute(ctx, "wait", action.Params{"duration": 60})
	assert.Equal(t, action.KindOperationFailure, res.Kind)
	assert.ErrorIs(t, res.Err(), context.Canceled)

	res = run(m, "wait", action.Params{"duration": -1})
	assert.Equal(t, action.KindValidation, res.Kind)
}

func TestParseChord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"a", "a", false},
		{"Enter", "enter", false},
		{"return", "enter", false},
		{"ctrl+c", "ctrl+c", false},
		{"Command+Option+PgDn", "super+alt+pagedown", false},
		{"+", "+", false},
		{"ctrl++", "ctrl++", false},
		{"", "", true},
		{"ctrl+", "", true},
		{"hyper+x", "", true},
		{"capslockish", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseChord(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSendKeysEscape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a{+}b{ENTER}{{}x{}}", sendKeysEscape("a+b\n{x}"))
}
