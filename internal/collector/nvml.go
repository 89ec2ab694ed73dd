package collector

import (
	"codeberg.org/mutker/servwatch/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const milliWattsPerWatt = 1000

// nvmlLibrary abstracts NVML lifecycle and device discovery for testing
type nvmlLibrary interface {
	Init() error
	Shutdown() error
	DeviceCount() (int, error)
	Device(index int) (nvmlDevice, error)
}

// nvmlDevice abstracts the per-device NVML queries the collector uses
type nvmlDevice interface {
	Name() (string, error)
	Temperature() (int, error)
	UtilizationRates() (gpu, memory int, err error)
	MemoryInfo() (total, used uint64, err error)
	Power() (usage, limit float64, err error)
}

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e *nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}

type nvmlWrapper struct {
	initialized bool
}

func (w *nvmlWrapper) Init() error {
	if w.initialized {
		return nil
	}

	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return errors.New().Wrap(ErrGPUInitFailed, newNVMLError(ret))
	}
	w.initialized = true

	return nil
}

func (w *nvmlWrapper) Shutdown() error {
	if !w.initialized {
		return nil
	}

	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return errors.New().Wrap(errors.ErrShutdownFailed, newNVMLError(ret))
	}
	w.initialized = false

	return nil
}

func (w *nvmlWrapper) DeviceCount() (int, error) {
	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return 0, errors.New().Wrap(ErrGPURead, newNVMLError(ret))
	}

	return count, nil
}

func (w *nvmlWrapper) Device(index int) (nvmlDevice, error) {
	device, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, errors.New().Wrap(ErrGPURead, newNVMLError(ret))
	}

	return &nvmlDeviceWrapper{device: device}, nil
}

type nvmlDeviceWrapper struct {
	device nvml.Device
}

func (d *nvmlDeviceWrapper) Name() (string, error) {
	name, ret := d.device.GetName()
	if ret != nvml.SUCCESS {
		return "", errors.New().Wrap(ErrGPURead, newNVMLError(ret))
	}

	return name, nil
}

func (d *nvmlDeviceWrapper) Temperature() (int, error) {
	temp, ret := d.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		return 0, errors.New().Wrap(ErrGPURead, newNVMLError(ret))
	}

	return int(temp), nil
}

func (d *nvmlDeviceWrapper) UtilizationRates() (gpu, memory int, err error) {
	util, ret := d.device.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return 0, 0, errors.New().Wrap(ErrGPURead, newNVMLError(ret))
	}

	return int(util.Gpu), int(util.Memory), nil
}

func (d *nvmlDeviceWrapper) MemoryInfo() (total, used uint64, err error) {
	info, ret := d.device.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return 0, 0, errors.New().Wrap(ErrGPURead, newNVMLError(ret))
	}

	return info.Total, info.Used, nil
}

func (d *nvmlDeviceWrapper) Power() (usage, limit float64, err error) {
	// Power queries are unsupported on some boards; callers treat an
	// error as "report zero", matching the other optional readings.
	usageMw, ret := d.device.GetPowerUsage()
	if ret != nvml.SUCCESS {
		return 0, 0, errors.New().Wrap(ErrGPURead, newNVMLError(ret))
	}

	limitMw, ret := d.device.GetPowerManagementLimit()
	if ret != nvml.SUCCESS {
		return float64(usageMw) / milliWattsPerWatt, 0, errors.New().Wrap(ErrGPURead, newNVMLError(ret))
	}

	return float64(usageMw) / milliWattsPerWatt, float64(limitMw) / milliWattsPerWatt, nil
}
