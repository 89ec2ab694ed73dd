package history

import (
	"context"
	"time"

	"codeberg.org/mutker/servwatch/internal/collector"
)

// Recorder persists metric samples and answers aggregate queries for the
// daily report.
type Recorder interface {
	Record(ctx context.Context, snapshot *collector.Snapshot) error
	Summary(ctx context.Context, since time.Time) (Summary, error)
	Close() error
}

// Sample is the persisted reduction of one snapshot: the scalar readings
// plus the worst per-category reading of the variable-length sequences.
type Sample struct {
	Timestamp      time.Time
	CPUPercent     float64
	MemoryPercent  float64
	MaxDiskPercent float64
	MaxGPUTemp     int
	MaxGPUMemory   float64
}

// Summary aggregates samples over a window.
type Summary struct {
	Samples    int
	AvgCPU     float64
	MaxCPU     float64
	AvgMemory  float64
	MaxMemory  float64
	MaxDisk    float64
	MaxGPUTemp int
}

type Config struct {
	Enabled       bool
	DBPath        string
	RetentionDays int
}
