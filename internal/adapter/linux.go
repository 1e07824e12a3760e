// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"os"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter/filesystem"
	"github.com/omniauto/omniauto/pkg/platform"
)

// linuxAdapter applies POSIX modes to created entries and drives X11 input
// through xdotool.
type linuxAdapter struct {
	*baseAdapter
}

var _ PlatformAdapter = (*linuxAdapter)(nil)

func (a *linuxAdapter) init(base *baseAdapter) { a.baseAdapter = base }

func (a *linuxAdapter) factories() map[action.Capability]factory {
	return map[action.Capability]factory{
		action.CapabilityFilesystem: a.createFilesystem,
		action.CapabilityProcess:    a.createProcess,
		action.CapabilityGUI:        a.createGUI,
		action.CapabilitySystem:     a.createSystem,
		action.CapabilityNetwork:    a.createNetwork,
	}
}

func (a *linuxAdapter) createFilesystem(s *settings) (action.ModuleAdapter, error) {
	return newFilesystem(s, filesystem.FlavorFor(platform.Linux))
}

func (a *linuxAdapter) createProcess(s *settings) (action.ModuleAdapter, error) {
	if s.sandbox != nil && *s.sandbox != platform.SandboxNone {
		s.logger.Info("spawning host programs through sandbox escape", "sandbox", *s.sandbox)
	}
	return newProcess(s, platform.Linux)
}

func (a *linuxAdapter) createGUI(s *settings) (action.ModuleAdapter, error) {
	// xdotool only reaches X11 clients; pure Wayland sessions reject synthetic input.
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") != "" {
		s.logger.Warn("no X11 display; gui actions need XWayland for xdotool")
	}
	return newGUI(s, platform.Linux)
}

func (a *linuxAdapter) createSystem(s *settings) (action.ModuleAdapter, error) {
	return newSystem(s, platform.Linux)
}

func (a *linuxAdapter) createNetwork(s *settings) (action.ModuleAdapter, error) {
	return newNetwork(a.baseAdapter, s)
}
