// Package sysinfo collects host facts for the check and debug reports.
package sysinfo

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type Snapshot struct {
	Hostname        string  `json:"hostname"`
	OS              string  `json:"os"`
	Platform        string  `json:"platform"`
	PlatformVersion string  `json:"platformVersion"`
	KernelVersion   string  `json:"kernelVersion"`
	Arch            string  `json:"arch"`
	UptimeSeconds   uint64  `json:"uptimeSeconds"`
	MemTotalMB      uint64  `json:"memTotalMB"`
	MemAvailableMB  uint64  `json:"memAvailableMB"`
	RootDiskFreeMB  uint64  `json:"rootDiskFreeMB"`
	RootDiskUsedPct float64 `json:"rootDiskUsedPct"`
}

// Collect never fails outright; fields that cannot be read stay zero so a
// degraded host still produces a report.
func Collect() Snapshot {
	var s Snapshot
	if hi, err := host.Info(); err == nil {
		s.Hostname = hi.Hostname
		s.OS = hi.OS
		s.Platform = hi.Platform
		s.PlatformVersion = hi.PlatformVersion
		s.KernelVersion = hi.KernelVersion
		s.Arch = hi.KernelArch
		s.UptimeSeconds = hi.Uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotalMB = vm.Total / (1 << 20)
		s.MemAvailableMB = vm.Available / (1 << 20)
	}
	if du, err := disk.Usage("/"); err == nil {
		s.RootDiskFreeMB = du.Free / (1 << 20)
		s.RootDiskUsedPct = du.UsedPercent
	}
	return s
}

func (s Snapshot) Uptime() time.Duration {
	return time.Duration(s.UptimeSeconds) * time.Second
}

func (s Snapshot) Summary() string {
	return fmt.Sprintf("%s %s (%s, kernel %s), mem %d/%d MB free, disk %d MB free",
		s.Platform, s.PlatformVersion, s.Arch, s.KernelVersion,
		s.MemAvailableMB, s.MemTotalMB, s.RootDiskFreeMB)
}
