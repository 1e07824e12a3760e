// SPDX-License-Identifier: MPL-2.0

package system

import (
	"strconv"
	"strings"

	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/pkg/platform"
)

// Power actions after alias normalization.
const (
	PowerShutdown  = "shutdown"
	PowerRestart   = "restart"
	PowerSuspend   = "suspend"
	PowerHibernate = "hibernate"
	PowerLock      = "lock"
)

// Service operations.
const (
	ServiceStatus  = "status"
	ServiceStart   = "start"
	ServiceStop    = "stop"
	ServiceRestart = "restart"
)

var powerAliases = map[string]string{
	"shutdown":  PowerShutdown,
	"poweroff":  PowerShutdown,
	"restart":   PowerRestart,
	"reboot":    PowerRestart,
	"suspend":   PowerSuspend,
	"sleep":     PowerSuspend,
	"hibernate": PowerHibernate,
	"lock":      PowerLock,
}

var powerTable = map[platform.Identity]map[string]runtime.Command{
	platform.Linux: {
		PowerShutdown: {Name: "sudo", Args: []string{"shutdown", "-h", "now"}},
		PowerRestart:  {Name: "sudo", Args: []string{"reboot"}},
		PowerSuspend:  {Name: "sudo", Args: []string{"systemctl", "suspend"}},
		PowerLock:     {Name: "loginctl", Args: []string{"lock-session"}},
	},
	platform.Darwin: {
		PowerShutdown: {Name: "osascript", Args: []string{"-e", `tell application "System Events" to shut down`}},
		PowerRestart:  {Name: "osascript", Args: []string{"-e", `tell application "System Events" to restart`}},
		PowerSuspend:  {Name: "pmset", Args: []string{"sleepnow"}},
		PowerLock:     {Name: "pmset", Args: []string{"displaysleepnow"}},
	},
	platform.Windows: {
		PowerShutdown:  {Name: "shutdown", Args: []string{"/s", "/t", "0"}},
		PowerRestart:   {Name: "shutdown", Args: []string{"/r", "/t", "0"}},
		PowerHibernate: {Name: "shutdown", Args: []string{"/h"}},
		PowerLock:      {Name: "rundll32.exe", Args: []string{"user32.dll,LockWorkStation"}},
	},
}

// NormalizePower maps a power action name or alias to its canonical form.
func NormalizePower(name string) (string, bool) {
	canonical, ok := powerAliases[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// PowerActions lists the canonical power actions available on id.
func PowerActions(id platform.Identity) []string {
	names := make([]string, 0, len(powerTable[id]))
	for _, n := range []string{PowerShutdown, PowerRestart, PowerSuspend, PowerHibernate, PowerLock} {
		if _, ok := powerTable[id][n]; ok {
			names = append(names, n)
		}
	}
	return names
}

func powerCommand(id platform.Identity, canonical string) (runtime.Command, bool) {
	cmd, ok := powerTable[id][canonical]
	if ok {
		cmd.Args = append([]string(nil), cmd.Args...)
	}
	return cmd, ok
}

// volumeCommands returns the volume tools for id in preference order. Level
// is already clamped to 0..100.
func volumeCommands(id platform.Identity, level int) []runtime.Command {
	pct := strconv.Itoa(level) + "%"
	switch id {
	case platform.Linux:
		return []runtime.Command{
			{Name: "pactl", Args: []string{"set-sink-volume", "@DEFAULT_SINK@", pct}},
			{Name: "amixer", Args: []string{"set", "Master", pct}},
		}
	case platform.Darwin:
		return []runtime.Command{{Name: "osascript", Args: []string{"-e", "set volume output volume " + strconv.Itoa(level)}}}
	case platform.Windows:
		// nircmd takes 0..65535.
		return []runtime.Command{{Name: "nircmd", Args: []string{"setsysvolume", strconv.Itoa(int(float64(level) * 655.35))}}}
	default:
		return nil
	}
}

// serviceCommands returns the commands run in sequence for op.
func serviceCommands(id platform.Identity, name, op string) []runtime.Command {
	switch id {
	case platform.Linux:
		if op == ServiceStatus {
			return []runtime.Command{{Name: "systemctl", Args: []string{"is-active", name}}}
		}
		return []runtime.Command{{Name: "systemctl", Args: []string{op, name}}}
	case platform.Windows:
		switch op {
		case ServiceStatus:
			return []runtime.Command{{Name: "sc", Args: []string{"query", name}}}
		case ServiceRestart:
			return []runtime.Command{{Name: "sc", Args: []string{"stop", name}}, {Name: "sc", Args: []string{"start", name}}}
		default:
			return []runtime.Command{{Name: "sc", Args: []string{op, name}}}
		}
	case platform.Darwin:
		switch op {
		case ServiceStatus:
			return []runtime.Command{{Name: "launchctl", Args: []string{"list", name}}}
		case ServiceRestart:
			return []runtime.Command{{Name: "launchctl", Args: []string{"stop", name}}, {Name: "launchctl", Args: []string{"start", name}}}
		default:
			return []runtime.Command{{Name: "launchctl", Args: []string{op, name}}}
		}
	default:
		return nil
	}
}

// serviceState interprets the output of a status command.
func serviceState(id platform.Identity, res *runtime.Result) string {
	switch id {
	case platform.Windows:
		for line := range strings.Lines(res.Output) {
			key, value, ok := strings.Cut(line, ":")
			if !ok || strings.TrimSpace(key) != "STATE" {
				continue
			}
			if fields := strings.Fields(value); len(fields) > 0 {
				return strings.ToLower(fields[len(fields)-1])
			}
		}
		return "unknown"
	case platform.Darwin:
		if res.ExitCode.IsSuccess() {
			return "loaded"
		}
		return "not_loaded"
	default:
		if state := strings.TrimSpace(res.Output); state != "" {
			return state
		}
		return "unknown"
	}
}
