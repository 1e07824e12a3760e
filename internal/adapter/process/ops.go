// SPDX-License-Identifier: MPL-2.0

package process

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/runtime"
	"github.com/omniauto/omniauto/pkg/platform"
)

const bytesPerMB = 1024 * 1024

func (m *Module) start(ctx context.Context, p action.Params) (action.Payload, error) {
	program, err := p.String("program", "application", "exe", "path")
	if err != nil {
		return nil, err
	}
	args, err := argsParam(p)
	if err != nil {
		return nil, err
	}
	cmd, err := commandParams(p, program, args)
	if err != nil {
		return nil, err
	}

	pid, err := m.exec.Start(ctx, cmd)
	if err != nil {
		return nil, action.Fail("start", err)
	}
	m.logger.Info("process started", "program", program, "pid", pid)
	return action.Payload{"pid": pid, "program": program, "args": args}, nil
}

func (m *Module) terminate(ctx context.Context, p action.Params) (action.Payload, error) {
	target, _ := p.Lookup("pid_or_name", "pid", "program", "name")
	pid, name, err := pidOrName(target)
	if err != nil {
		return nil, err
	}

	if pid != 0 {
		if pid == m.self {
			return nil, action.Invalid("pid_or_name", "refusing to terminate the automation process itself")
		}
		if err := m.table.Terminate(ctx, pid); err != nil {
			return nil, action.Fail("terminate", err)
		}
		return action.Payload{"terminated": []int32{pid}, "count": 1}, nil
	}

	procs, err := m.table.List(ctx)
	if err != nil {
		return nil, action.Fail("terminate", err)
	}
	var (
		terminated = []int32{}
		errs       []error
	)
	for _, proc := range procs {
		if proc.PID == m.self || !m.match(name, proc) {
			continue
		}
		if err := m.table.Terminate(ctx, proc.PID); err != nil {
			errs = append(errs, err)
			continue
		}
		terminated = append(terminated, proc.PID)
	}
	if len(terminated) == 0 {
		if len(errs) > 0 {
			return nil, action.Fail("terminate", errors.Join(errs...))
		}
		return nil, action.Failf("terminate", "no process matching %q", name)
	}
	return action.Payload{"terminated": terminated, "count": len(terminated), "name": name}, nil
}

func (m *Module) list(ctx context.Context, p action.Params) (action.Payload, error) {
	name, err := p.OptString("name", "")
	if err != nil {
		return nil, err
	}
	procs, err := m.table.List(ctx)
	if err != nil {
		return nil, action.Fail("list", err)
	}

	out := make([]map[string]any, 0, len(procs))
	for _, proc := range procs {
		if name != "" && !m.match(name, proc) {
			continue
		}
		entry := map[string]any{
			"pid":         proc.PID,
			"name":        proc.Name,
			"cpu_percent": proc.CPUPercent,
			"memory_mb":   float64(proc.MemoryRSS) / bytesPerMB,
		}
		if m.platform != platform.Windows {
			entry["username"] = proc.Username
		}
		out = append(out, entry)
	}
	return action.Payload{"processes": out, "count": len(out)}, nil
}

func (m *Module) info(ctx context.Context, p action.Params) (action.Payload, error) {
	pid, err := p.Int("pid")
	if err != nil {
		return nil, err
	}
	if pid <= 0 || pid > math.MaxInt32 {
		return nil, action.Invalid("pid", "must be a positive process ID, got %d", pid)
	}

	proc, err := m.table.Get(ctx, int32(pid))
	if err != nil {
		return nil, action.Fail("info", err)
	}
	return action.Payload{
		"pid":         proc.PID,
		"name":        proc.Name,
		"cmdline":     proc.Cmdline,
		"status":      proc.Status,
		"cpu_percent": proc.CPUPercent,
		"memory_mb":   float64(proc.MemoryRSS) / bytesPerMB,
		"create_time": proc.CreateTime,
		"username":    proc.Username,
		"cwd":         proc.Cwd,
	}, nil
}

func (m *Module) run(ctx context.Context, p action.Params) (action.Payload, error) {
	command, err := p.String("command")
	if err != nil {
		return nil, err
	}
	args, err := argsParam(p)
	if err != nil {
		return nil, err
	}
	rtName, err := p.OptString("runtime", string(m.defaultRuntime))
	if err != nil {
		return nil, err
	}
	rtType := runtime.RuntimeType(rtName)
	if err := rtType.Validate(); err != nil {
		return nil, action.Invalid("runtime", "%v", err)
	}
	shell, err := p.OptBool("shell", false)
	if err != nil {
		return nil, err
	}
	timeout, err := p.OptSeconds("timeout", 0)
	if err != nil {
		return nil, err
	}
	check, err := p.OptBool("check", true)
	if err != nil {
		return nil, err
	}
	cmd, err := commandParams(p, command, args)
	if err != nil {
		return nil, err
	}
	cmd.Timeout = timeout
	if shell {
		if len(args) > 0 {
			return nil, action.Invalid("args", "cannot be combined with shell=true")
		}
		cmd.Name, cmd.Script = "", command
	}

	if m.runtimes == nil {
		return nil, action.Failf("run", "no runtimes configured")
	}
	rt, err := m.runtimes.Get(rtType)
	if err != nil {
		return nil, action.Fail("run", err)
	}

	res := rt.Run(ctx, cmd)
	if res.Error != nil || (check && !res.Success()) {
		return nil, action.Fail("run", res.Err(command))
	}
	return action.Payload{
		"exit_code":   int(res.ExitCode),
		"stdout":      res.Output,
		"stderr":      res.ErrOutput,
		"duration_ms": res.Duration.Milliseconds(),
		"runtime":     rt.Name(),
	}, nil
}

// argsParam accepts a list of strings or one string split with shell rules.
func argsParam(p action.Params) ([]string, error) {
	v, ok := p.Lookup("args")
	if !ok {
		return nil, nil
	}
	if s, isString := v.(string); isString {
		fields, err := runtime.SplitFields(s)
		if err != nil {
			return nil, action.Invalid("args", "%v", err)
		}
		return fields, nil
	}
	return p.OptStrings("args")
}

// commandParams extracts work_dir and env_file into a Command.
func commandParams(p action.Params, name string, args []string) (*runtime.Command, error) {
	workDir, err := p.OptString("work_dir", "", "cwd")
	if err != nil {
		return nil, err
	}
	envFile, err := p.OptString("env_file", "")
	if err != nil {
		return nil, err
	}
	cmd := &runtime.Command{Name: name, Args: args, Dir: workDir}
	if envFile != "" {
		env := make(map[string]string)
		if err := runtime.LoadEnvFile(env, envFile, workDir); err != nil {
			return nil, action.Invalid("env_file", "%v", err)
		}
		cmd.Env = env
	}
	return cmd, nil
}

// pidOrName interprets a terminate target. Numbers, and strings made only of
// digits, are PIDs; anything else is a name.
func pidOrName(v any) (int32, string, error) {
	switch typed := v.(type) {
	case float64:
		if typed != math.Trunc(typed) || typed <= 0 || typed > math.MaxInt32 {
			return 0, "", action.Invalid("pid_or_name", "invalid PID %v", typed)
		}
		return int32(typed), "", nil
	case int:
		if typed <= 0 || typed > math.MaxInt32 {
			return 0, "", action.Invalid("pid_or_name", "invalid PID %d", typed)
		}
		return int32(typed), "", nil
	case int32:
		return pidOrName(int(typed))
	case int64:
		return pidOrName(int(typed))
	case string:
		s := strings.TrimSpace(typed)
		if s == "" {
			return 0, "", action.Invalid("pid_or_name", "must not be empty")
		}
		if n, err := strconv.Atoi(s); err == nil {
			return pidOrName(n)
		}
		return 0, s, nil
	default:
		return 0, "", action.Invalid("pid_or_name", "must be a PID or a process name, got %T", v)
	}
}

func currentPID() int32 {
	pid := os.Getpid()
	if pid > math.MaxInt32 {
		return 0
	}
	return int32(pid) //nolint:gosec // bounds checked above
}

// String renders Info for log lines.
func (i Info) String() string {
	return fmt.Sprintf("%s[%d]", i.Name, i.PID)
}
