// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter/filesystem"
	"github.com/omniauto/omniauto/pkg/platform"
)

// darwinAdapter reports permissions without applying modes and drives input
// through cliclick and System Events.
type darwinAdapter struct {
	*baseAdapter
}

var _ PlatformAdapter = (*darwinAdapter)(nil)

func (a *darwinAdapter) init(base *baseAdapter) { a.baseAdapter = base }

func (a *darwinAdapter) factories() map[action.Capability]factory {
	return map[action.Capability]factory{
		action.CapabilityFilesystem: a.createFilesystem,
		action.CapabilityProcess:    a.createProcess,
		action.CapabilityGUI:        a.createGUI,
		action.CapabilitySystem:     a.createSystem,
		action.CapabilityNetwork:    a.createNetwork,
	}
}

func (a *darwinAdapter) createFilesystem(s *settings) (action.ModuleAdapter, error) {
	return newFilesystem(s, filesystem.FlavorFor(platform.Darwin))
}

func (a *darwinAdapter) createProcess(s *settings) (action.ModuleAdapter, error) {
	return newProcess(s, platform.Darwin)
}

func (a *darwinAdapter) createGUI(s *settings) (action.ModuleAdapter, error) {
	s.logger.Debug("gui actions require Accessibility permission for the calling terminal")
	return newGUI(s, platform.Darwin)
}

func (a *darwinAdapter) createSystem(s *settings) (action.ModuleAdapter, error) {
	return newSystem(s, platform.Darwin)
}

func (a *darwinAdapter) createNetwork(s *settings) (action.ModuleAdapter, error) {
	return newNetwork(a.baseAdapter, s)
}
