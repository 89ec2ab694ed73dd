package collector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLibrary struct {
	initErr error
	devices []*fakeDevice
}

func (f *fakeLibrary) Init() error     { return f.initErr }
func (f *fakeLibrary) Shutdown() error { return nil }

func (f *fakeLibrary) DeviceCount() (int, error) {
	return len(f.devices), nil
}

func (f *fakeLibrary) Device(index int) (nvmlDevice, error) {
	if index >= len(f.devices) {
		return nil, errors.New("no such device")
	}
	return f.devices[index], nil
}

type fakeDevice struct {
	name     string
	temp     int
	gpuUtil  int
	memUtil  int
	memTotal uint64
	memUsed  uint64
	failTemp bool
}

func (d *fakeDevice) Name() (string, error) { return d.name, nil }

func (d *fakeDevice) Temperature() (int, error) {
	if d.failTemp {
		return 0, errors.New("temperature query failed")
	}
	return d.temp, nil
}

func (d *fakeDevice) UtilizationRates() (int, int, error) {
	return d.gpuUtil, d.memUtil, nil
}

func (d *fakeDevice) MemoryInfo() (uint64, uint64, error) {
	return d.memTotal, d.memUsed, nil
}

func (d *fakeDevice) Power() (float64, float64, error) {
	return 0, 0, errors.New("power query unsupported")
}

func TestGPUUnavailableOnInitFailure(t *testing.T) {
	gpu := newGPU(&fakeLibrary{initErr: errors.New("driver not loaded")})

	assert.False(t, gpu.Available())
	assert.Empty(t, gpu.Readings())
}

func TestGPUUnavailableWithZeroDevices(t *testing.T) {
	gpu := newGPU(&fakeLibrary{})

	assert.False(t, gpu.Available())
	assert.Empty(t, gpu.Readings())
}

func TestGPUReadings(t *testing.T) {
	gpu := newGPU(&fakeLibrary{devices: []*fakeDevice{
		{name: "RTX 4090", temp: 62, gpuUtil: 80, memUtil: 40, memTotal: 24 << 30, memUsed: 12 << 30},
		{name: "RTX 4090", temp: 58, gpuUtil: 10, memUtil: 5, memTotal: 24 << 30, memUsed: 6 << 30},
	}})

	require.True(t, gpu.Available())
	readings := gpu.Readings()
	require.Len(t, readings, 2)

	assert.Equal(t, 0, readings[0].Index)
	assert.Equal(t, "RTX 4090", readings[0].Name)
	assert.Equal(t, 62, readings[0].Temperature)
	assert.Equal(t, 80, readings[0].Utilization)
	assert.InDelta(t, 50.0, readings[0].MemoryPercent, 0.001)
	assert.InDelta(t, 25.0, readings[1].MemoryPercent, 0.001)

	// Power queries failed; the readings still carry everything else.
	assert.Zero(t, readings[0].PowerUsage)
}

func TestGPUReadingsSkipFailingDevice(t *testing.T) {
	gpu := newGPU(&fakeLibrary{devices: []*fakeDevice{
		{name: "GPU0", failTemp: true},
		{name: "GPU1", temp: 55, memTotal: 8 << 30, memUsed: 1 << 30},
	}})

	readings := gpu.Readings()
	require.Len(t, readings, 1)
	assert.Equal(t, "GPU1", readings[0].Name)
	assert.Equal(t, 1, readings[0].Index)
}
