// SPDX-License-Identifier: MPL-2.0

package system

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/joho/godotenv"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/pkg/platform"
)

var serviceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9@._:-]*$`)

func (m *Module) getInfo(ctx context.Context, _ action.Params) (action.Payload, error) {
	s, err := m.probe.Snapshot(ctx)
	if err != nil {
		return nil, action.Fail("get_info", err)
	}
	payload := action.Payload{
		"platform":         string(m.platform),
		"system":           s.OS,
		"distribution":     s.Platform,
		"release":          s.KernelVersion,
		"version":          s.PlatformVersion,
		"machine":          s.Arch,
		"hostname":         s.Hostname,
		"processor":        s.CPUModel,
		"cpu_count":        s.CPULogical,
		"cpu_cores":        s.CPUCores,
		"memory_total":     s.MemTotal,
		"memory_available": s.MemAvailable,
		"memory_percent":   s.MemUsedPercent,
		"boot_time":        s.BootTime,
		"uptime_seconds":   s.Uptime,
		"disk_usage": map[string]any{
			"path":    s.Disk.Path,
			"total":   s.Disk.Total,
			"used":    s.Disk.Used,
			"free":    s.Disk.Free,
			"percent": s.Disk.UsedPercent,
		},
	}
	if m.platform == platform.Linux {
		payload["distro_info"] = m.distroInfo()
	}
	return payload, nil
}

// distroInfo parses os-release. A missing or unreadable file yields an empty map.
func (m *Module) distroInfo() map[string]string {
	info, err := godotenv.Read(m.osRelease)
	if err != nil {
		m.logger.Debug("os-release unavailable", "path", m.osRelease, "err", err)
		return map[string]string{}
	}
	return info
}

func (m *Module) setVolume(ctx context.Context, p action.Params) (action.Payload, error) {
	requested, err := p.Int("level", "volume")
	if err != nil {
		return nil, err
	}
	level := min(max(requested, 0), 100)

	tool, err := m.runFallback(ctx, volumeCommands(m.platform, level))
	if err != nil {
		return nil, action.Fail("set_volume", fmt.Errorf("no volume control method available: %w", err))
	}
	payload := action.Payload{"level": level, "tool": tool}
	if level != requested {
		payload["requested_level"] = requested
	}
	return payload, nil
}

func (m *Module) powerAction(ctx context.Context, p action.Params) (action.Payload, error) {
	name, err := p.String("action", "power")
	if err != nil {
		return nil, err
	}
	canonical, ok := NormalizePower(name)
	if !ok {
		return nil, action.Invalid("action", "unknown power action %q", name)
	}
	cmd, ok := powerCommand(m.platform, canonical)
	if !ok {
		return nil, action.Invalid("action", "%s is not available on %s (available: %s)",
			canonical, m.platform, strings.Join(PowerActions(m.platform), ", "))
	}
	if !m.allowPower {
		return nil, &action.PermissionDeniedError{
			Action: "power_action",
			Reason: "power actions are disabled; set system.allow_power_actions to enable them",
		}
	}

	m.logger.Warn("performing power action", "action", canonical)
	if err := m.exec.Run(ctx, &cmd).Err(cmd.Name); err != nil {
		return nil, action.Fail("power_action", err)
	}
	return action.Payload{"action": canonical}, nil
}

func (m *Module) env(_ context.Context, p action.Params) (action.Payload, error) {
	prefix, err := p.OptString("prefix", "")
	if err != nil {
		return nil, err
	}
	hasPrefix := strings.HasPrefix
	if m.platform == platform.Windows {
		hasPrefix = func(s, prefix string) bool {
			return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
		}
	}

	vars := make(map[string]string)
	for _, kv := range m.environ() {
		k, v, ok := strings.Cut(kv, "=")
		// Windows keeps per-drive working directories as "=C:=C:\...".
		if !ok || k == "" {
			continue
		}
		if prefix == "" || hasPrefix(k, prefix) {
			vars[k] = v
		}
	}
	return action.Payload{
		"variables": vars,
		"names":     slices.Sorted(maps.Keys(vars)),
		"count":     len(vars),
	}, nil
}

func (m *Module) service(ctx context.Context, p action.Params) (action.Payload, error) {
	name, err := p.String("name", "service")
	if err != nil {
		return nil, err
	}
	if !serviceNamePattern.MatchString(name) {
		return nil, action.Invalid("name", "%q is not a valid service name", name)
	}
	op, err := p.String("operation")
	if err != nil {
		return nil, err
	}
	op = strings.ToLower(strings.TrimSpace(op))
	switch op {
	case ServiceStatus, ServiceStart, ServiceStop, ServiceRestart:
	default:
		return nil, action.Invalid("operation", "must be status, start, stop, or restart, got %q", op)
	}

	cmds := serviceCommands(m.platform, name, op)
	if op == ServiceStatus {
		res := m.exec.Run(ctx, &cmds[0])
		// Status commands exit non-zero for stopped services; only a failure to run is an error.
		if res.Error != nil {
			return nil, action.Fail("service", res.Error)
		}
		state := serviceState(m.platform, res)
		return action.Payload{"name": name, "operation": op, "state": state, "output": res.Output}, nil
	}

	var output []string
	for i := range cmds {
		res := m.exec.Run(ctx, &cmds[i])
		if err := res.Err(cmds[i].Name); err != nil {
			return nil, action.Fail("service", err)
		}
		if out := strings.TrimSpace(res.Output); out != "" {
			output = append(output, out)
		}
	}
	return action.Payload{"name": name, "operation": op, "output": strings.Join(output, "\n")}, nil
}

// runFallback tries each command in order, moving on when a tool is missing
// or fails, and returns the name of the first that succeeds.
func (m *Module) runFallback(ctx context.Context, cmds []runtime.Command) (string, error) {
	if len(cmds) == 0 {
		return "", fmt.Errorf("no tools known for %s", m.platform)
	}
	var errs []error
	for i := range cmds {
		cmd := cmds[i]
		if _, err := m.exec.LookPath(cmd.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		err := m.exec.Run(ctx, &cmd).Err(cmd.Name)
		if err == nil {
			return cmd.Name, nil
		}
		m.logger.Debug("tool failed, trying next", "tool", cmd.Name, "err", err)
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}
