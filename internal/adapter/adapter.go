// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/pkg/platform"
)

// ErrNilModule is returned when a variant factory yields no module.
var ErrNilModule = errors.New("module factory returned nil")

type (
	// PlatformAdapter owns one module per capability for a single platform.
	PlatformAdapter interface {
		Platform() platform.Identity
		Filesystem() action.ModuleAdapter
		Process() action.ModuleAdapter
		GUI() action.ModuleAdapter
		System() action.ModuleAdapter
		Network() action.ModuleAdapter
		// Module returns the module for c. An unrecognized capability is a
		// validation error.
		Module(c action.Capability) (action.ModuleAdapter, error)
		// Modules returns all modules in capability order.
		Modules() []action.ModuleAdapter
		// Cleanup releases resources held by the modules. It is safe to call
		// more than once.
		Cleanup() error
	}

	// factory builds one capability module for a variant.
	factory func(*settings) (action.ModuleAdapter, error)

	// variant is implemented by each platform's adapter type.
	variant interface {
		PlatformAdapter
		init(base *baseAdapter)
		factories() map[action.Capability]factory
	}

	// baseAdapter holds the modules and cleanup hooks shared by every variant.
	baseAdapter struct {
		id       platform.Identity
		modules  map[action.Capability]action.ModuleAdapter
		cleanups []func() error

		cleanupOnce sync.Once
		cleanupErr  error
	}
)

var variants = map[platform.Identity]func() variant{
	platform.Windows: func() variant { return &windowsAdapter{} },
	platform.Linux:   func() variant { return &linuxAdapter{} },
	platform.Darwin:  func() variant { return &darwinAdapter{} },
}

// SupportedPlatforms returns the platforms Create can build adapters for.
func SupportedPlatforms() []platform.Identity {
	return platform.Supported()
}

// Create builds the adapter for the detected platform, or the one named by
// WithPlatform. Unsupported platforms fail with *action.UnsupportedPlatformError.
func Create(opts ...Option) (PlatformAdapter, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	if s.platform == "" {
		s.platform = platform.Detect()
	}

	newVariant, ok := variants[s.platform]
	if !ok {
		return nil, &action.UnsupportedPlatformError{Platform: string(s.platform)}
	}
	if err := s.prepareRuntimes(); err != nil {
		return nil, err
	}

	v := newVariant()
	base := &baseAdapter{id: s.platform, modules: make(map[action.Capability]action.ModuleAdapter)}
	v.init(base)
	if err := base.build(s, v.factories()); err != nil {
		_ = base.Cleanup()
		return nil, err
	}
	s.logger.Debug("platform adapter ready", "platform", s.platform, "capabilities", len(base.modules))
	return v, nil
}

// prepareRuntimes fills in the executor and registry from the host runtimes
// unless both were supplied.
func (s *settings) prepareRuntimes() error {
	if s.defaultRuntime != "" {
		if err := s.defaultRuntime.Validate(); err != nil {
			return err
		}
	}
	if s.executor != nil && s.runtimes != nil {
		return nil
	}
	built := runtime.BuildRegistry(runtime.BuildRegistryOptions{Shell: s.shell, Sandbox: s.sandbox})
	for _, d := range built.Diagnostics {
		s.logger.Debug("runtime diagnostic", "code", d.Code, "message", d.Message)
	}
	if s.executor == nil {
		s.executor = built.Native
	}
	if s.runtimes == nil {
		s.runtimes = built.Registry
	}
	return nil
}

func (b *baseAdapter) build(s *settings, factories map[action.Capability]factory) error {
	for _, c := range action.AllCapabilities() {
		create, ok := factories[c]
		if !ok {
			return fmt.Errorf("create %s %s module: %w", b.id, c, ErrNilModule)
		}
		m, err := create(s)
		if err != nil {
			return fmt.Errorf("create %s %s module: %w", b.id, c, err)
		}
		if m == nil {
			return fmt.Errorf("create %s %s module: %w", b.id, c, ErrNilModule)
		}
		b.modules[c] = m
	}
	return nil
}

// onCleanup registers fn to run during Cleanup, in reverse registration order.
func (b *baseAdapter) onCleanup(fn func() error) {
	b.cleanups = append(b.cleanups, fn)
}

func (b *baseAdapter) Platform() platform.Identity { return b.id }

func (b *baseAdapter) Filesystem() action.ModuleAdapter {
	return b.modules[action.CapabilityFilesystem]
}

func (b *baseAdapter) Process() action.ModuleAdapter { return b.modules[action.CapabilityProcess] }

func (b *baseAdapter) GUI() action.ModuleAdapter { return b.modules[action.CapabilityGUI] }

func (b *baseAdapter) System() action.ModuleAdapter { return b.modules[action.CapabilitySystem] }

func (b *baseAdapter) Network() action.ModuleAdapter { return b.modules[action.CapabilityNetwork] }

func (b *baseAdapter) Module(c action.Capability) (action.ModuleAdapter, error) {
	if err := c.Validate(); err != nil {
		return nil, action.Invalid("capability", "%v", err)
	}
	return b.modules[c], nil
}

func (b *baseAdapter) Modules() []action.ModuleAdapter {
	out := make([]action.ModuleAdapter, 0, len(b.modules))
	for _, c := range action.AllCapabilities() {
		if m, ok := b.modules[c]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (b *baseAdapter) Cleanup() error {
	b.cleanupOnce.Do(func() {
		var errs []error
		for _, fn := range slices.Backward(b.cleanups) {
			errs = append(errs, fn())
		}
		b.cleanupErr = errors.Join(errs...)
	})
	return b.cleanupErr
}
