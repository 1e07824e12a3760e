// SPDX-License-Identifier: MPL-2.0

package process

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrNoSuchProcess is returned when a PID does not exist.
var ErrNoSuchProcess = errors.New("no such process")

type (
	// Info is a snapshot of one process. Fields a platform cannot report are left zero.
	Info struct {
		PID        int32
		Name       string
		Cmdline    string
		Username   string
		Status     string
		CPUPercent float64
		MemoryRSS  uint64
		CreateTime int64
		Cwd        string
	}

	// Table reads and signals the host process table.
	Table interface {
		List(ctx context.Context) ([]Info, error)
		Get(ctx context.Context, pid int32) (Info, error)
		Terminate(ctx context.Context, pid int32) error
	}

	// HostTable is the gopsutil-backed Table.
	HostTable struct{}
)

var _ Table = HostTable{}

// List snapshots every process the caller may inspect. Processes that exit or
// deny access mid-scan are skipped.
func (HostTable) List(ctx context.Context) ([]Info, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}
	out := make([]Info, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		info := Info{PID: p.Pid, Name: name}
		info.Cmdline, _ = p.CmdlineWithContext(ctx)
		info.Username, _ = p.UsernameWithContext(ctx)
		info.CPUPercent, _ = p.CPUPercentWithContext(ctx)
		if mem, memErr := p.MemoryInfoWithContext(ctx); memErr == nil && mem != nil {
			info.MemoryRSS = mem.RSS
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b Info) int { return cmp.Compare(a.PID, b.PID) })
	return out, nil
}

// Get returns a detailed snapshot of pid.
func (HostTable) Get(ctx context.Context, pid int32) (Info, error) {
	p, err := newProcess(ctx, pid)
	if err != nil {
		return Info{}, err
	}
	info := Info{PID: pid}
	if info.Name, err = p.NameWithContext(ctx); err != nil {
		return Info{}, fmt.Errorf("read process %d: %w", pid, err)
	}
	info.Cmdline, _ = p.CmdlineWithContext(ctx)
	info.Username, _ = p.UsernameWithContext(ctx)
	info.CPUPercent, _ = p.CPUPercentWithContext(ctx)
	info.CreateTime, _ = p.CreateTimeWithContext(ctx)
	info.Cwd, _ = p.CwdWithContext(ctx)
	if status, statusErr := p.StatusWithContext(ctx); statusErr == nil && len(status) > 0 {
		info.Status = status[0]
	}
	if mem, memErr := p.MemoryInfoWithContext(ctx); memErr == nil && mem != nil {
		info.MemoryRSS = mem.RSS
	}
	return info, nil
}

// Terminate asks pid to exit (SIGTERM on POSIX, TerminateProcess on Windows).
func (HostTable) Terminate(ctx context.Context, pid int32) error {
	p, err := newProcess(ctx, pid)
	if err != nil {
		return err
	}
	if err := p.TerminateWithContext(ctx); err != nil {
		return fmt.Errorf("terminate %d: %w", pid, err)
	}
	return nil
}

func newProcess(ctx context.Context, pid int32) (*process.Process, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, fmt.Errorf("pid %d: %w", pid, ErrNoSuchProcess)
		}
		return nil, fmt.Errorf("pid %d: %w", pid, err)
	}
	return p, nil
}
