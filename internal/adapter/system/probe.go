// SPDX-License-Identifier: MPL-2.0

package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

type (
	// Snapshot is a point-in-time view of the host.
	Snapshot struct {
		Hostname        string
		OS              string
		Platform        string
		PlatformVersion string
		KernelVersion   string
		Arch            string
		BootTime        uint64
		Uptime          uint64
		CPUModel        string
		CPUCores        int
		CPULogical      int
		MemTotal        uint64
		MemAvailable    uint64
		MemUsedPercent  float64
		Disk            DiskUsage
	}

	// DiskUsage describes the filesystem holding DiskPath.
	DiskUsage struct {
		Path        string
		Total       uint64
		Used        uint64
		Free        uint64
		UsedPercent float64
	}

	// Probe collects host snapshots.
	Probe interface {
		Snapshot(ctx context.Context) (Snapshot, error)
	}

	// HostProbe reads the live host through gopsutil.
	HostProbe struct {
		// DiskPath is the mount point reported under disk usage.
		DiskPath string
	}
)

var _ Probe = HostProbe{}

// Snapshot gathers host, CPU, memory, and disk facts. Host and memory are
// required; CPU model and disk are best effort.
func (p HostProbe) Snapshot(ctx context.Context) (Snapshot, error) {
	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read host info: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read memory info: %w", err)
	}

	s := Snapshot{
		Hostname:        hi.Hostname,
		OS:              hi.OS,
		Platform:        hi.Platform,
		PlatformVersion: hi.PlatformVersion,
		KernelVersion:   hi.KernelVersion,
		Arch:            hi.KernelArch,
		BootTime:        hi.BootTime,
		Uptime:          hi.Uptime,
		MemTotal:        vm.Total,
		MemAvailable:    vm.Available,
		MemUsedPercent:  vm.UsedPercent,
	}
	if infos, cpuErr := cpu.InfoWithContext(ctx); cpuErr == nil && len(infos) > 0 {
		s.CPUModel = infos[0].ModelName
	}
	s.CPUCores, _ = cpu.CountsWithContext(ctx, false)
	s.CPULogical, _ = cpu.CountsWithContext(ctx, true)

	path := p.DiskPath
	if path == "" {
		path = "/"
	}
	if du, duErr := disk.UsageWithContext(ctx, path); duErr == nil {
		s.Disk = DiskUsage{Path: du.Path, Total: du.Total, Used: du.Used, Free: du.Free, UsedPercent: du.UsedPercent}
	}
	return s, nil
}
