// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter/filesystem"
	"github.com/omniauto/omniauto/pkg/platform"
)

// windowsAdapter leaves ACLs alone and drives input through PowerShell and
// System.Windows.Forms.
type windowsAdapter struct {
	*baseAdapter
}

var _ PlatformAdapter = (*windowsAdapter)(nil)

func (a *windowsAdapter) init(base *baseAdapter) { a.baseAdapter = base }

func (a *windowsAdapter) factories() map[action.Capability]factory {
	return map[action.Capability]factory{
		action.CapabilityFilesystem: a.createFilesystem,
		action.CapabilityProcess:    a.createProcess,
		action.CapabilityGUI:        a.createGUI,
		action.CapabilitySystem:     a.createSystem,
		action.CapabilityNetwork:    a.createNetwork,
	}
}

func (a *windowsAdapter) createFilesystem(s *settings) (action.ModuleAdapter, error) {
	return newFilesystem(s, filesystem.FlavorFor(platform.Windows))
}

func (a *windowsAdapter) createProcess(s *settings) (action.ModuleAdapter, error) {
	return newProcess(s, platform.Windows)
}

func (a *windowsAdapter) createGUI(s *settings) (action.ModuleAdapter, error) {
	return newGUI(s, platform.Windows)
}

func (a *windowsAdapter) createSystem(s *settings) (action.ModuleAdapter, error) {
	return newSystem(s, platform.Windows)
}

func (a *windowsAdapter) createNetwork(s *settings) (action.ModuleAdapter, error) {
	return newNetwork(a.baseAdapter, s)
}
