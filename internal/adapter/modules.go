// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"net/http"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter/filesystem"
	"github.com/omniauto/omniauto/internal/adapter/gui"
	"github.com/omniauto/omniauto/internal/adapter/network"
	"github.com/omniauto/omniauto/internal/adapter/process"
	"github.com/omniauto/omniauto/internal/adapter/system"
	"github.com/omniauto/omniauto/pkg/platform"
)

// module converts a concrete constructor result into a ModuleAdapter without
// leaking a typed nil.
func module[M action.ModuleAdapter](m M, err error) (action.ModuleAdapter, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newFilesystem(s *settings, flavor filesystem.Flavor) (action.ModuleAdapter, error) {
	return module(filesystem.New(filesystem.Options{
		Flavor:   flavor,
		BaseDir:  s.baseDir,
		Logger:   s.moduleLogger(action.CapabilityFilesystem),
		Dispatch: s.dispatch(),
	}))
}

func newProcess(s *settings, id platform.Identity) (action.ModuleAdapter, error) {
	return module(process.New(process.Options{
		Platform:       id,
		Executor:       s.executor,
		Runtimes:       s.runtimes,
		DefaultRuntime: s.defaultRuntime,
		Table:          s.processTable,
		Logger:         s.moduleLogger(action.CapabilityProcess),
		Dispatch:       s.dispatch(),
	}))
}

func newGUI(s *settings, id platform.Identity) (action.ModuleAdapter, error) {
	return module(gui.New(gui.Options{
		Platform:      id,
		Backend:       s.guiBackend,
		Executor:      s.executor,
		Pause:         s.guiPause,
		ScreenshotDir: firstNonEmpty(s.screenshotDir, s.baseDir),
		Logger:        s.moduleLogger(action.CapabilityGUI),
		Dispatch:      s.dispatch(),
	}))
}

func newSystem(s *settings, id platform.Identity) (action.ModuleAdapter, error) {
	return module(system.New(system.Options{
		Platform:          id,
		Executor:          s.executor,
		Probe:             s.probe,
		AllowPowerActions: s.allowPower,
		Logger:            s.moduleLogger(action.CapabilitySystem),
		Dispatch:          s.dispatch(),
	}))
}

// newNetwork builds the network module and registers idle-connection cleanup.
func newNetwork(b *baseAdapter, s *settings) (action.ModuleAdapter, error) {
	client := s.httpClient
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	m, err := network.New(network.Options{
		Client:     client,
		UserAgent:  s.userAgent,
		BaseDir:    s.baseDir,
		KnownHosts: s.knownHosts,
		Inspector:  s.inspector,
		Uploader:   s.uploader,
		Logger:     s.moduleLogger(action.CapabilityNetwork),
		Dispatch:   s.dispatch(),
	})
	if err != nil {
		return nil, err
	}
	b.onCleanup(func() error {
		client.CloseIdleConnections()
		return nil
	})
	return m, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
