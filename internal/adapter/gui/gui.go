// SPDX-License-Identifier: MPL-2.0

package gui

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/pkg/platform"
)

// DefaultPause is the settle time applied after each input action when the
// configuration does not override it.
const DefaultPause = 100 * time.Millisecond

var _ action.ModuleAdapter = (*Module)(nil)

type (
	// Options configures a Module.
	Options struct {
		Platform platform.Identity
		// Backend overrides the platform's default backend.
		Backend  Backend
		Executor runtime.Executor
		// Pause is slept after click, move_mouse, type, and press_key. Zero disables pacing.
		Pause time.Duration
		// ScreenshotDir anchors relative screenshot filenames.
		ScreenshotDir string
		// Now stamps default screenshot names. Nil means time.Now.
		Now      func() time.Time
		Logger   *log.Logger
		Dispatch []action.DispatcherOption
	}

	// Module is the gui ModuleAdapter.
	Module struct {
		*action.Dispatcher

		backend       Backend
		exec          runtime.Executor
		pause         time.Duration
		screenshotDir string
		now           func() time.Time
		logger        *log.Logger
	}
)

// New builds the gui module.
func New(opts Options) (*Module, error) {
	backend := opts.Backend
	if backend == nil {
		var err error
		if backend, err = BackendFor(opts.Platform); err != nil {
			return nil, err
		}
	}
	if opts.Executor == nil {
		opts.Executor = runtime.NewNativeRuntime()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	m := &Module{
		backend:       backend,
		exec:          opts.Executor,
		pause:         max(opts.Pause, 0),
		screenshotDir: opts.ScreenshotDir,
		now:           opts.Now,
		logger:        opts.Logger,
	}
	dispatchOpts := append([]action.DispatcherOption{action.WithLogger(opts.Logger)}, opts.Dispatch...)
	d, err := action.NewDispatcher(action.CapabilityGUI, m.specs(), dispatchOpts...)
	if err != nil {
		return nil, err
	}
	m.Dispatcher = d
	return m, nil
}

// Backend returns the input backend in use.
func (m *Module) Backend() Backend { return m.backend }

func (m *Module) specs() []action.Spec {
	x := action.ParamSpec{Name: "x", Type: action.ParamInteger}
	y := action.ParamSpec{Name: "y", Type: action.ParamInteger}
	return []action.Spec{
		{
			Name:        "click",
			Description: "Click a mouse button, optionally after moving to x,y",
			Risk:        action.RiskModerate,
			Params: []action.ParamSpec{
				x, y,
				{Name: "button", Type: action.ParamString, Description: "left, right, or middle"},
			},
			Handler: m.click,
		},
		{
			Name:        "move_mouse",
			Description: "Move the pointer to x,y",
			Risk:        action.RiskModerate,
			Params:      []action.ParamSpec{{Name: "x", Type: action.ParamInteger, Required: true}, {Name: "y", Type: action.ParamInteger, Required: true}},
			Handler:     m.moveMouse,
		},
		{
			Name:        "type",
			Description: "Type text into the focused window",
			Risk:        action.RiskModerate,
			Params:      []action.ParamSpec{{Name: "text", Type: action.ParamString, Required: true}},
			Handler:     m.typeText,
		},
		{
			Name:        "press_key",
			Description: "Press a key or chord such as enter or ctrl+s",
			Risk:        action.RiskModerate,
			Params:      []action.ParamSpec{{Name: "key", Type: action.ParamString, Required: true}},
			Handler:     m.pressKey,
		},
		{
			Name:        "screenshot",
			Description: "Capture the primary screen to a PNG file",
			Risk:        action.RiskSafe,
			Params:      []action.ParamSpec{{Name: "filename", Type: action.ParamString, Aliases: []string{"path"}}},
			Handler:     m.screenshot,
		},
		{
			Name:        "wait",
			Description: "Pause for a number of seconds",
			Risk:        action.RiskSafe,
			Params:      []action.ParamSpec{{Name: "duration", Type: action.ParamNumber, Aliases: []string{"seconds"}}},
			Handler:     m.wait,
		},
	}
}
