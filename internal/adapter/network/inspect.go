// SPDX-License-Identifier: MPL-2.0

package network

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	gnet "github.com/shirou/gopsutil/v4/net"
)

type (
	// Interface is one network interface and its addresses.
	Interface struct {
		Name         string
		HardwareAddr string
		Flags        []string
		// Addrs are in CIDR form, as reported by the OS.
		Addrs []string
	}

	// Counters are host-wide traffic totals.
	Counters struct {
		BytesSent   uint64
		BytesRecv   uint64
		PacketsSent uint64
		PacketsRecv uint64
	}

	// Inspector reads interface and traffic information.
	Inspector interface {
		Interfaces(ctx context.Context) ([]Interface, error)
		Counters(ctx context.Context) (Counters, error)
	}

	// HostInspector reads the live host through gopsutil.
	HostInspector struct{}
)

var _ Inspector = HostInspector{}

// Interfaces lists every interface the OS reports.
func (HostInspector) Interfaces(ctx context.Context) ([]Interface, error) {
	stats, err := gnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	out := make([]Interface, 0, len(stats))
	for _, s := range stats {
		iface := Interface{Name: s.Name, HardwareAddr: s.HardwareAddr, Flags: s.Flags}
		for _, a := range s.Addrs {
			iface.Addrs = append(iface.Addrs, a.Addr)
		}
		out = append(out, iface)
	}
	return out, nil
}

// Counters sums traffic across all interfaces.
func (HostInspector) Counters(ctx context.Context) (Counters, error) {
	stats, err := gnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return Counters{}, fmt.Errorf("read io counters: %w", err)
	}
	if len(stats) == 0 {
		return Counters{}, nil
	}
	s := stats[0]
	return Counters{BytesSent: s.BytesSent, BytesRecv: s.BytesRecv, PacketsSent: s.PacketsSent, PacketsRecv: s.PacketsRecv}, nil
}

// PrimaryIPv4 returns the first non-loopback, non-link-local IPv4 address.
func PrimaryIPv4(ifaces []Interface) string {
	for _, iface := range ifaces {
		for _, raw := range iface.Addrs {
			addr, ok := parseAddr(raw)
			if ok && addr.Is4() && !addr.IsLoopback() && !addr.IsLinkLocalUnicast() {
				return addr.String()
			}
		}
	}
	return ""
}

func parseAddr(raw string) (netip.Addr, bool) {
	if prefix, err := netip.ParsePrefix(raw); err == nil {
		return prefix.Addr(), true
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	return addr, err == nil
}
