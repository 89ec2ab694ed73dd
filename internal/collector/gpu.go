package collector

import (
	"codeberg.org/mutker/servwatch/internal/logger"
)

// GPU collects NVIDIA GPU readings via NVML. A host without a usable
// driver yields an unavailable collector, never an error: GPU metrics
// are optional everywhere downstream.
type GPU struct {
	lib         nvmlLibrary
	deviceCount int
	available   bool
	initialized bool
}

func NewGPU() *GPU {
	return newGPU(&nvmlWrapper{})
}

func newGPU(lib nvmlLibrary) *GPU {
	g := &GPU{lib: lib}

	if err := lib.Init(); err != nil {
		logger.Debug().Err(err).Msg("NVML unavailable, GPU metrics disabled")
		return g
	}
	g.initialized = true

	count, err := lib.DeviceCount()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to count GPU devices")
		return g
	}

	g.deviceCount = count
	g.available = count > 0

	if g.available {
		logger.Info().Int("devices", count).Msg("GPU metrics enabled")
	}

	return g
}

func (g *GPU) Available() bool {
	return g.available
}

// Readings returns one reading per device. A device that fails a query
// is skipped; an empty result is valid.
func (g *GPU) Readings() []GPUReading {
	if !g.available {
		return nil
	}

	readings := make([]GPUReading, 0, g.deviceCount)
	for i := 0; i < g.deviceCount; i++ {
		reading, err := g.read(i)
		if err != nil {
			logger.Warn().Int("index", i).Err(err).Msg("Failed to read GPU")
			continue
		}
		readings = append(readings, reading)
	}

	return readings
}

func (g *GPU) read(index int) (GPUReading, error) {
	device, err := g.lib.Device(index)
	if err != nil {
		return GPUReading{}, err
	}

	name, err := device.Name()
	if err != nil {
		return GPUReading{}, err
	}

	temp, err := device.Temperature()
	if err != nil {
		return GPUReading{}, err
	}

	gpuUtil, memUtil, err := device.UtilizationRates()
	if err != nil {
		return GPUReading{}, err
	}

	memTotal, memUsed, err := device.MemoryInfo()
	if err != nil {
		return GPUReading{}, err
	}

	reading := GPUReading{
		Index:             index,
		Name:              name,
		Temperature:       temp,
		Utilization:       gpuUtil,
		MemoryUtilization: memUtil,
		MemoryTotal:       memTotal,
		MemoryUsed:        memUsed,
	}
	if memTotal > 0 {
		reading.MemoryPercent = float64(memUsed) / float64(memTotal) * 100
	}

	// Optional readings
	if usage, limit, err := device.Power(); err == nil {
		reading.PowerUsage = usage
		reading.PowerLimit = limit
	}

	return reading, nil
}

func (g *GPU) Shutdown() {
	if !g.initialized {
		return
	}
	if err := g.lib.Shutdown(); err != nil {
		logger.Warn().Err(err).Msg("NVML shutdown failed")
	}
}
