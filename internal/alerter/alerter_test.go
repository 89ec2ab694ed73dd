package alerter

import (
	"errors"
	"testing"
	"time"

	"codeberg.org/mutker/servwatch/internal/collector"
	"codeberg.org/mutker/servwatch/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init(false, false, true)
}

type fakeNotifier struct {
	sent    []Event
	failFor map[Category]error
}

func (f *fakeNotifier) Send(event Event) error {
	if err, ok := f.failFor[event.Category]; ok {
		return err
	}
	f.sent = append(f.sent, event)
	return nil
}

func testConfig() Config {
	return Config{
		Cooldown:          300 * time.Second,
		CPUWarning:        70,
		CPUCritical:       90,
		MemoryWarning:     80,
		MemoryCritical:    95,
		DiskWarning:       80,
		DiskCritical:      95,
		GPUTempWarning:    75,
		GPUTempCritical:   85,
		GPUMemoryWarning:  80,
		GPUMemoryCritical: 95,
	}
}

func newTestEngine(t *testing.T, n Notifier) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(0, 0)}
	engine := New(testConfig(), "testhost", n)
	engine.now = clock.Now
	return engine, clock
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected Severity
	}{
		{"below warning", 69.9, SeverityNone},
		{"at warning", 70, SeverityWarning},
		{"between thresholds", 89.9, SeverityWarning},
		{"at critical", 90, SeverityCritical},
		{"above critical", 100, SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.value, 70, 90))
		})
	}
}

func TestClassifyCriticalWinsTie(t *testing.T) {
	// Equal thresholds: a qualifying value is Critical only, never both.
	assert.Equal(t, SeverityCritical, Classify(80, 80, 80))
}

func TestCooldownGate(t *testing.T) {
	engine, clock := newTestEngine(t, &fakeNotifier{})

	assert.True(t, engine.tryAcquire("cpu_CRITICAL", clock.Now()), "first acquire should be granted")

	clock.Advance(100 * time.Second)
	assert.False(t, engine.tryAcquire("cpu_CRITICAL", clock.Now()), "acquire within cooldown should be suppressed")

	clock.Advance(201 * time.Second)
	assert.True(t, engine.tryAcquire("cpu_CRITICAL", clock.Now()), "acquire after cooldown should be granted")
}

func TestCooldownGateSuppressionDoesNotExtendWindow(t *testing.T) {
	engine, clock := newTestEngine(t, &fakeNotifier{})

	require.True(t, engine.tryAcquire("memory_WARNING", clock.Now()))

	// Repeated suppressed attempts must not touch the stored timestamp.
	clock.Advance(150 * time.Second)
	require.False(t, engine.tryAcquire("memory_WARNING", clock.Now()))
	clock.Advance(150 * time.Second)
	assert.True(t, engine.tryAcquire("memory_WARNING", clock.Now()))
}

func TestCooldownGateDistinctKeys(t *testing.T) {
	engine, clock := newTestEngine(t, &fakeNotifier{})

	assert.True(t, engine.tryAcquire("cpu_CRITICAL", clock.Now()))
	assert.True(t, engine.tryAcquire("cpu_WARNING", clock.Now()))
	assert.True(t, engine.tryAcquire("disk_/_CRITICAL", clock.Now()))
	assert.True(t, engine.tryAcquire("disk_/data_CRITICAL", clock.Now()))

	// None of the acquisitions above may affect any other key.
	assert.False(t, engine.tryAcquire("cpu_CRITICAL", clock.Now()))
	assert.False(t, engine.tryAcquire("disk_/data_CRITICAL", clock.Now()))
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "cpu_CRITICAL", Event{Category: CategoryCPU, Severity: SeverityCritical}.Key())
	assert.Equal(t, "memory_WARNING", Event{Category: CategoryMemory, Severity: SeverityWarning}.Key())
	assert.Equal(t, "disk_/data_CRITICAL",
		Event{Category: CategoryDisk, Target: "/data", Severity: SeverityCritical}.Key())
	assert.Equal(t, "gpu_temp_0_WARNING",
		Event{Category: CategoryGPUTemp, Target: "0", Severity: SeverityWarning}.Key())
	assert.Equal(t, "gpu_mem_1_CRITICAL",
		Event{Category: CategoryGPUMemory, Target: "1", Severity: SeverityCritical}.Key())
}

func TestEvaluateQuietSnapshot(t *testing.T) {
	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(t, notifier)

	fired := engine.Evaluate(collector.Snapshot{
		CPUPercent: 10,
		Memory:     collector.MemoryInfo{Percent: 20},
	})

	assert.Empty(t, fired)
	assert.Empty(t, notifier.sent)
}

func TestEvaluateCPUScenario(t *testing.T) {
	notifier := &fakeNotifier{}
	engine, clock := newTestEngine(t, notifier)

	snapshot := collector.Snapshot{CPUPercent: 95, Memory: collector.MemoryInfo{Percent: 20}}
	fired := engine.Evaluate(snapshot)
	require.Len(t, fired, 1)
	assert.Equal(t, CategoryCPU, fired[0].Category)
	assert.Equal(t, SeverityCritical, fired[0].Severity)
	assert.InDelta(t, 95, fired[0].Value, 0.001)
	assert.Equal(t, "testhost", fired[0].Server)

	// Within the cooldown window: suppressed.
	clock.Advance(100 * time.Second)
	snapshot.CPUPercent = 96
	assert.Empty(t, engine.Evaluate(snapshot))

	// Past the window: fires again.
	clock.Advance(201 * time.Second)
	fired = engine.Evaluate(snapshot)
	require.Len(t, fired, 1)
	assert.Equal(t, SeverityCritical, fired[0].Severity)

	assert.Len(t, notifier.sent, 2)
}

func TestEvaluateDiskScenario(t *testing.T) {
	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(t, notifier)

	fired := engine.Evaluate(collector.Snapshot{
		CPUPercent: 10,
		Memory:     collector.MemoryInfo{Percent: 20},
		Disks: []collector.DiskUsage{
			{Mountpoint: "/", Percent: 85},
			{Mountpoint: "/data", Percent: 97},
		},
	})

	require.Len(t, fired, 2)
	assert.Equal(t, "disk_/_WARNING", fired[0].Key())
	assert.Equal(t, "disk_/data_CRITICAL", fired[1].Key())
}

func TestEvaluateGPUScenario(t *testing.T) {
	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(t, notifier)

	fired := engine.Evaluate(collector.Snapshot{
		CPUPercent: 10,
		Memory:     collector.MemoryInfo{Percent: 20},
		GPUs: []collector.GPUReading{
			{Index: 0, Name: "RTX 4090", Temperature: 88, MemoryPercent: 50},
			{Index: 1, Name: "RTX 4090", Temperature: 60, MemoryPercent: 96},
		},
	})

	require.Len(t, fired, 2)
	assert.Equal(t, "gpu_temp_0_CRITICAL", fired[0].Key())
	assert.Equal(t, "gpu_mem_1_CRITICAL", fired[1].Key())
}

func TestEvaluateEmptyDisksAndGPUs(t *testing.T) {
	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(t, notifier)

	fired := engine.Evaluate(collector.Snapshot{
		CPUPercent: 95,
		Memory:     collector.MemoryInfo{Percent: 96},
	})

	// Only the two scalar categories fire; no disk or GPU work happens.
	require.Len(t, fired, 2)
	assert.Equal(t, CategoryCPU, fired[0].Category)
	assert.Equal(t, CategoryMemory, fired[1].Category)
}

func TestEvaluateOrderIsFixed(t *testing.T) {
	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(t, notifier)

	fired := engine.Evaluate(collector.Snapshot{
		CPUPercent: 95,
		Memory:     collector.MemoryInfo{Percent: 96},
		Disks:      []collector.DiskUsage{{Mountpoint: "/", Percent: 97}},
		GPUs:       []collector.GPUReading{{Index: 0, Temperature: 90, MemoryPercent: 96}},
	})

	require.Len(t, fired, 5)
	order := []Category{CategoryCPU, CategoryMemory, CategoryDisk, CategoryGPUTemp, CategoryGPUMemory}
	for i, category := range order {
		assert.Equal(t, category, fired[i].Category)
	}
}

func TestNotifyFailureDoesNotStopEvaluation(t *testing.T) {
	notifier := &fakeNotifier{
		failFor: map[Category]error{CategoryCPU: errors.New("transport down")},
	}
	engine, _ := newTestEngine(t, notifier)

	fired := engine.Evaluate(collector.Snapshot{
		CPUPercent: 95,
		Memory:     collector.MemoryInfo{Percent: 96},
		Disks:      []collector.DiskUsage{{Mountpoint: "/", Percent: 97}},
	})

	// CPU still counts as fired; memory and disk were delivered.
	require.Len(t, fired, 3)
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, CategoryMemory, notifier.sent[0].Category)
	assert.Equal(t, CategoryDisk, notifier.sent[1].Category)
}

func TestNotifyFailureKeepsCooldownSlot(t *testing.T) {
	notifier := &fakeNotifier{
		failFor: map[Category]error{CategoryCPU: errors.New("transport down")},
	}
	engine, clock := newTestEngine(t, notifier)

	snapshot := collector.Snapshot{CPUPercent: 95, Memory: collector.MemoryInfo{Percent: 20}}
	require.Len(t, engine.Evaluate(snapshot), 1)

	// Delivery failed, but the slot stays reserved: no storm while the
	// transport is down.
	clock.Advance(100 * time.Second)
	assert.Empty(t, engine.Evaluate(snapshot))
}

func TestConcurrentGateSingleWinner(t *testing.T) {
	engine, clock := newTestEngine(t, &fakeNotifier{})

	const callers = 32
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		go func() {
			results <- engine.tryAcquire("cpu_CRITICAL", clock.Now())
		}()
	}

	granted := 0
	for i := 0; i < callers; i++ {
		if <-results {
			granted++
		}
	}
	assert.Equal(t, 1, granted, "exactly one concurrent caller may acquire a key")
}
