// SPDX-License-Identifier: MPL-2.0

// Package service is the request-level front of a platform adapter. The CLI
// and the HTTP, SSH and MCP surfaces all execute actions through it.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter"
	"github.com/omniauto/omniauto/pkg/platform"

	"github.com/charmbracelet/log"
)

type (
	// Request names one action call.
	Request struct {
		Capability action.Capability `json:"capability" yaml:"capability"`
		Action     string            `json:"action" yaml:"action"`
		Params     action.Params     `json:"params,omitempty" yaml:"params,omitempty"`
	}

	// CapabilityInfo describes one module's action table.
	CapabilityInfo struct {
		Capability action.Capability `json:"capability" yaml:"capability"`
		Actions    []action.Spec     `json:"actions" yaml:"actions"`
	}

	// Service executes requests against a single adapter. It adds no locking:
	// concurrent callers share the adapter's modules.
	Service struct {
		adapter adapter.PlatformAdapter
		logger  *log.Logger
	}
)

// New wraps a. A nil logger discards output.
func New(a adapter.PlatformAdapter, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{adapter: a, logger: logger}
}

// Platform reports the adapter's platform.
func (s *Service) Platform() platform.Identity { return s.adapter.Platform() }

// Execute runs req. Like ModuleAdapter.Execute it never returns nil; an
// unrecognized capability becomes a validation-error result.
func (s *Service) Execute(ctx context.Context, req Request) *action.Result {
	mod, err := s.adapter.Module(req.Capability)
	if err != nil {
		s.logger.Warn("rejected request", "capability", req.Capability, "action", req.Action, "err", err)
		res := action.NewErrorResult(err)
		res.Capability, res.Action = req.Capability, req.Action
		return res
	}
	return mod.Execute(ctx, req.Action, req.Params)
}

// Catalog lists every capability with its action table.
func (s *Service) Catalog() []CapabilityInfo {
	mods := s.adapter.Modules()
	out := make([]CapabilityInfo, 0, len(mods))
	for _, m := range mods {
		out = append(out, CapabilityInfo{Capability: m.Capability(), Actions: m.Describe()})
	}
	return out
}

// Describe returns the action table of one capability.
func (s *Service) Describe(c action.Capability) (CapabilityInfo, error) {
	mod, err := s.adapter.Module(c)
	if err != nil {
		return CapabilityInfo{}, err
	}
	return CapabilityInfo{Capability: c, Actions: mod.Describe()}, nil
}

// ParseAssignments turns command-line arguments into Params. "key=value"
// always yields a string; "key:=json" decodes the right-hand side as JSON so
// lists and objects can be passed. A repeated key is a validation error.
func ParseAssignments(args []string) (action.Params, error) {
	params := make(action.Params, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, action.Invalid("params", "argument %q is not key=value", arg)
		}
		var value any = raw
		if k, isJSON := strings.CutSuffix(key, ":"); isJSON {
			key = k
			if err := json.Unmarshal([]byte(raw), &value); err != nil {
				return nil, action.Invalid(strings.TrimSpace(key), "malformed JSON: %v", err)
			}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, action.Invalid("params", "argument %q has an empty key", arg)
		}
		if _, dup := params[key]; dup {
			return nil, action.Invalid(key, "given more than once")
		}
		params[key] = value
	}
	return params, nil
}

// String renders the request the way log lines and the SSH surface spell it.
func (r Request) String() string {
	return fmt.Sprintf("%s.%s", r.Capability, r.Action)
}
