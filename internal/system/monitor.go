package system

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStatus is a point-in-time summary of the machine running the service.
type HostStatus struct {
	Hostname        string  `json:"hostname"`
	OS              string  `json:"os"`
	Platform        string  `json:"platform"`
	PlatformVersion string  `json:"platform_version"`
	KernelVersion   string  `json:"kernel_version"`
	Uptime          uint64  `json:"uptime"`
	BootTime        uint64  `json:"boot_time"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryTotal     uint64  `json:"memory_total"`
	MemoryUsed      uint64  `json:"memory_used"`
	MemoryPercent   float64 `json:"memory_percent"`
	DiskTotal       uint64  `json:"disk_total"`
	DiskUsed        uint64  `json:"disk_used"`
	DiskPercent     float64 `json:"disk_percent"`
	// Errors lists the probes that failed; the matching fields stay zero.
	Errors []string `json:"errors,omitempty"`
}

// Monitor collects host information through gopsutil.
type Monitor struct {
	rootPath   string
	cpuSample  time.Duration
	hostInfo   func(ctx context.Context) (*host.InfoStat, error)
	memInfo    func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	diskUsage  func(ctx context.Context, path string) (*disk.UsageStat, error)
	cpuPercent func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
}

func NewMonitor() *Monitor {
	return &Monitor{
		rootPath:   "/",
		cpuSample:  200 * time.Millisecond,
		hostInfo:   host.InfoWithContext,
		memInfo:    mem.VirtualMemoryWithContext,
		diskUsage:  disk.UsageWithContext,
		cpuPercent: cpu.PercentWithContext,
	}
}

// Status gathers what it can; individual probe failures are reported in Errors.
func (m *Monitor) Status(ctx context.Context) HostStatus {
	var st HostStatus

	if info, err := m.hostInfo(ctx); err == nil {
		st.Hostname = info.Hostname
		st.OS = info.OS
		st.Platform = info.Platform
		st.PlatformVersion = info.PlatformVersion
		st.KernelVersion = info.KernelVersion
		st.Uptime = info.Uptime
		st.BootTime = info.BootTime
	} else {
		st.Errors = append(st.Errors, "host: "+err.Error())
	}

	if vm, err := m.memInfo(ctx); err == nil {
		st.MemoryTotal = vm.Total
		st.MemoryUsed = vm.Used
		st.MemoryPercent = vm.UsedPercent
	} else {
		st.Errors = append(st.Errors, "memory: "+err.Error())
	}

	if pct, err := m.cpuPercent(ctx, m.cpuSample, false); err == nil && len(pct) > 0 {
		st.CPUPercent = pct[0]
	} else if err != nil {
		st.Errors = append(st.Errors, "cpu: "+err.Error())
	}

	if du, err := m.diskUsage(ctx, m.rootPath); err == nil {
		st.DiskTotal = du.Total
		st.DiskUsed = du.Used
		st.DiskPercent = du.UsedPercent
	} else {
		st.Errors = append(st.Errors, "disk: "+err.Error())
	}

	return st
}
