package alerter

import "time"

// Severity is the ordered classification of a metric value against a
// warning/critical threshold pair.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "NONE"
	}
}

// Category identifies one monitored quantity class.
type Category string

const (
	CategoryCPU       Category = "cpu"
	CategoryMemory    Category = "memory"
	CategoryDisk      Category = "disk"
	CategoryGPUTemp   Category = "gpu_temp"
	CategoryGPUMemory Category = "gpu_mem"
)

// Event is one fired alert. Target carries the sub-identifier for
// categories that have one (disk mountpoint, GPU index as a string).
type Event struct {
	Category Category
	Severity Severity
	Target   string
	Value    float64
	Server   string
}

// Key returns the cooldown key for the event: stable across evaluations
// of the same quantity, distinct across different ones.
func (e Event) Key() string {
	if e.Target == "" {
		return string(e.Category) + "_" + e.Severity.String()
	}
	return string(e.Category) + "_" + e.Target + "_" + e.Severity.String()
}

// Notifier delivers one fired alert to its destination. Implementations
// own retry and timeout policy; the engine never retries.
type Notifier interface {
	Send(event Event) error
}

// Config holds the per-category threshold pairs and the cooldown applied
// uniformly to all alert keys.
type Config struct {
	Cooldown time.Duration

	CPUWarning        float64
	CPUCritical       float64
	MemoryWarning     float64
	MemoryCritical    float64
	DiskWarning       float64
	DiskCritical      float64
	GPUTempWarning    float64
	GPUTempCritical   float64
	GPUMemoryWarning  float64
	GPUMemoryCritical float64
}
