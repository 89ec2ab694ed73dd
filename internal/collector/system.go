package collector

import (
	"sort"
	"strings"
	"time"

	"codeberg.org/mutker/servwatch/internal/errors"
	"codeberg.org/mutker/servwatch/internal/logger"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

const cpuSampleInterval = time.Second

// Mounts and filesystem types that are not real user storage.
var (
	skipMountPrefixes = []string{"/snap", "/boot/efi", "/run", "/dev", "/sys", "/proc"}
	skipFstypes       = map[string]bool{
		"squashfs": true,
		"tmpfs":    true,
		"devtmpfs": true,
		"overlay":  true,
	}
)

// System collects host metrics via gopsutil.
type System struct{}

func NewSystem() *System {
	return &System{}
}

func (s *System) CPUPercent() (float64, error) {
	errFactory := errors.New()

	percents, err := cpu.Percent(cpuSampleInterval, false)
	if err != nil {
		return 0, errFactory.Wrap(ErrCPURead, err)
	}
	if len(percents) == 0 {
		return 0, errFactory.New(ErrCPURead)
	}

	return percents[0], nil
}

func (s *System) Memory() (MemoryInfo, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryInfo{}, errors.New().Wrap(ErrMemoryRead, err)
	}

	return MemoryInfo{
		Total:     vm.Total,
		Used:      vm.Used,
		Available: vm.Available,
		Percent:   vm.UsedPercent,
	}, nil
}

// Disks returns usage for real storage mounts. A mount that cannot be
// statted (permissions, stale NFS) is skipped, not an error.
func (s *System) Disks() ([]DiskUsage, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		return nil, errors.New().Wrap(ErrDiskRead, err)
	}

	disks := make([]DiskUsage, 0, len(partitions))
	for _, p := range partitions {
		if skipPartition(p.Mountpoint, p.Fstype) {
			continue
		}

		usage, err := disk.Usage(p.Mountpoint)
		if err != nil {
			logger.Debug().Str("mountpoint", p.Mountpoint).Err(err).Msg("Skipping unreadable mount")
			continue
		}

		disks = append(disks, DiskUsage{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Total:      usage.Total,
			Used:       usage.Used,
			Free:       usage.Free,
			Percent:    usage.UsedPercent,
		})
	}

	return disks, nil
}

func (s *System) LoadAverage() (LoadAverage, error) {
	avg, err := load.Avg()
	if err != nil {
		return LoadAverage{}, errors.New().Wrap(ErrLoadRead, err)
	}

	return LoadAverage{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}, nil
}

func (s *System) Uptime() (time.Duration, error) {
	seconds, err := host.Uptime()
	if err != nil {
		return 0, errors.New().Wrap(ErrUptimeRead, err)
	}

	return time.Duration(seconds) * time.Second, nil
}

func (s *System) NetCounters() (NetCounters, error) {
	counters, err := net.IOCounters(false)
	if err != nil {
		return NetCounters{}, errors.New().Wrap(ErrNetRead, err)
	}
	if len(counters) == 0 {
		return NetCounters{}, errors.New().New(ErrNetRead)
	}

	return NetCounters{BytesSent: counters[0].BytesSent, BytesRecv: counters[0].BytesRecv}, nil
}

func (s *System) CPUDetail() (CPUDetail, error) {
	errFactory := errors.New()

	detail := CPUDetail{}

	cores, err := cpu.Counts(false)
	if err != nil {
		return detail, errFactory.Wrap(ErrCPURead, err)
	}
	detail.Cores = cores

	if threads, err := cpu.Counts(true); err == nil {
		detail.Threads = threads
	}

	percents, err := cpu.Percent(cpuSampleInterval, false)
	if err != nil || len(percents) == 0 {
		return detail, errFactory.Wrap(ErrCPURead, err)
	}
	detail.Percent = percents[0]

	if perCore, err := cpu.Percent(100*time.Millisecond, true); err == nil {
		detail.PerCore = perCore
	}

	if freqs, err := cpu.Info(); err == nil && len(freqs) > 0 {
		detail.FreqCurrent = freqs[0].Mhz
	}

	return detail, nil
}

// TopProcesses returns the n processes with the highest CPU usage.
func (s *System) TopProcesses(n int) ([]ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, errors.New().Wrap(ErrProcessRead, err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		cpuPct, err := p.CPUPercent()
		if err != nil {
			continue
		}
		memPct, _ := p.MemoryPercent()

		infos = append(infos, ProcessInfo{
			PID:        p.Pid,
			Name:       name,
			CPUPercent: cpuPct,
			MemPercent: float64(memPct),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CPUPercent > infos[j].CPUPercent
	})

	if len(infos) > n {
		infos = infos[:n]
	}

	return infos, nil
}

func skipPartition(mountpoint, fstype string) bool {
	for _, prefix := range skipMountPrefixes {
		if strings.HasPrefix(mountpoint, prefix) {
			return true
		}
	}

	return skipFstypes[fstype]
}
