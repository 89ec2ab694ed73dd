package history

import (
	"context"
	"path/filepath"
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

func newTestRecorder(t *testing.T) Recorder {
	t.Helper()

	rec, err := NewService(Config{
		Enabled:       true,
		DBPath:        filepath.Join(t.TempDir(), "history.db"),
		RetentionDays: 30,
	})
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	return rec
}

func snapshotAt(ts time.Time, cpu, memory float64) collector.Snapshot {
	return collector.Snapshot{
		Timestamp:  ts,
		CPUPercent: cpu,
		Memory:     collector.MemoryInfo{Percent: memory},
	}
}

func TestRecordAndSummary(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	snapshots := []collector.Snapshot{
		snapshotAt(base, 10, 30),
		snapshotAt(base.Add(time.Minute), 50, 40),
		snapshotAt(base.Add(2*time.Minute), 30, 50),
	}
	for i := range snapshots {
		require.NoError(t, rec.Record(ctx, &snapshots[i]))
	}

	summary, err := rec.Summary(ctx, base.Add(-time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Samples)
	assert.InDelta(t, 30.0, summary.AvgCPU, 0.001)
	assert.InDelta(t, 50.0, summary.MaxCPU, 0.001)
	assert.InDelta(t, 40.0, summary.AvgMemory, 0.001)
	assert.InDelta(t, 50.0, summary.MaxMemory, 0.001)
}

func TestSummaryWindowExcludesOldSamples(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	old := snapshotAt(time.Now().Add(-48*time.Hour), 99, 99)
	recent := snapshotAt(time.Now().Add(-time.Minute), 20, 20)
	require.NoError(t, rec.Record(ctx, &old))
	require.NoError(t, rec.Record(ctx, &recent))

	summary, err := rec.Summary(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Samples)
	assert.InDelta(t, 20.0, summary.MaxCPU, 0.001)
}

func TestSummaryEmpty(t *testing.T) {
	rec := newTestRecorder(t)

	summary, err := rec.Summary(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, summary.Samples)
	assert.Zero(t, summary.MaxCPU)
}

func TestRecordNilSnapshot(t *testing.T) {
	rec := newTestRecorder(t)

	err := rec.Record(context.Background(), nil)
	require.Error(t, err)
}

func TestReduceKeepsWorstReadings(t *testing.T) {
	snapshot := collector.Snapshot{
		Timestamp:  time.Now(),
		CPUPercent: 42,
		Memory:     collector.MemoryInfo{Percent: 60},
		Disks: []collector.DiskUsage{
			{Mountpoint: "/", Percent: 50},
			{Mountpoint: "/data", Percent: 91},
		},
		GPUs: []collector.GPUReading{
			{Index: 0, Temperature: 70, MemoryPercent: 30},
			{Index: 1, Temperature: 85, MemoryPercent: 95},
		},
	}

	sample := reduce(&snapshot)

	assert.InDelta(t, 42.0, sample.CPUPercent, 0.001)
	assert.InDelta(t, 60.0, sample.MemoryPercent, 0.001)
	assert.InDelta(t, 91.0, sample.MaxDiskPercent, 0.001)
	assert.Equal(t, 85, sample.MaxGPUTemp)
	assert.InDelta(t, 95.0, sample.MaxGPUMemory, 0.001)
}

func TestNoopRecorder(t *testing.T) {
	rec, err := NewService(Config{Enabled: false})
	require.NoError(t, err)

	snapshot := snapshotAt(time.Now(), 10, 10)
	require.NoError(t, rec.Record(context.Background(), &snapshot))

	summary, err := rec.Summary(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, summary.Samples)
	require.NoError(t, rec.Close())
}
