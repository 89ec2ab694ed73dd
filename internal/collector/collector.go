package collector

import (
	"time"

	"codeberg.org/mutker/servwatch/internal/logger"
)

// Collector combines the host and GPU collectors into a single Source.
type Collector struct {
	system *System
	gpu    *GPU
}

func New(system *System, gpu *GPU) *Collector {
	return &Collector{system: system, gpu: gpu}
}

// Snapshot captures all monitored metrics at one instant. CPU and memory
// are mandatory; every other reading degrades to its zero value when the
// underlying query fails.
func (c *Collector) Snapshot() (Snapshot, error) {
	cpuPercent, err := c.system.CPUPercent()
	if err != nil {
		return Snapshot{}, err
	}

	memory, err := c.system.Memory()
	if err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Timestamp:  time.Now(),
		CPUPercent: cpuPercent,
		Memory:     memory,
	}

	if disks, err := c.system.Disks(); err == nil {
		snapshot.Disks = disks
	} else {
		logger.Warn().Err(err).Msg("Failed to list disks")
	}

	if loadAvg, err := c.system.LoadAverage(); err == nil {
		snapshot.Load = loadAvg
	}

	if uptime, err := c.system.Uptime(); err == nil {
		snapshot.Uptime = uptime
	}

	if counters, err := c.system.NetCounters(); err == nil {
		snapshot.Net = counters
	}

	snapshot.GPUs = c.gpu.Readings()

	return snapshot, nil
}

func (c *Collector) System() *System {
	return c.system
}

func (c *Collector) GPU() *GPU {
	return c.gpu
}
