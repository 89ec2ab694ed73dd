package collector

import "time"

// Snapshot is one consistent, point-in-time capture of all monitored
// metrics. It is produced fresh on every collection and never mutated.
type Snapshot struct {
	Timestamp  time.Time
	CPUPercent float64
	Memory     MemoryInfo
	Disks      []DiskUsage
	Load       LoadAverage
	Uptime     time.Duration
	Net        NetCounters
	GPUs       []GPUReading
}

type MemoryInfo struct {
	Total     uint64
	Used      uint64
	Available uint64
	Percent   float64
}

type DiskUsage struct {
	Device     string
	Mountpoint string
	Total      uint64
	Used       uint64
	Free       uint64
	Percent    float64
}

type LoadAverage struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

type NetCounters struct {
	BytesSent uint64
	BytesRecv uint64
}

type GPUReading struct {
	Index             int
	Name              string
	Temperature       int
	Utilization       int
	MemoryUtilization int
	MemoryTotal       uint64
	MemoryUsed        uint64
	MemoryPercent     float64
	PowerUsage        float64
	PowerLimit        float64
}

type SensorTemperature struct {
	SensorKey   string
	Temperature float64
	High        float64
}

type ServiceInfo struct {
	Name   string
	Active string
	Sub    string
}

type ContainerInfo struct {
	Name   string
	Image  string
	Status string
	Ports  string
}

type TmuxSession struct {
	Name     string
	Windows  int
	Created  time.Time
	Attached bool
}

type ProcessInfo struct {
	PID        int32
	Name       string
	CPUPercent float64
	MemPercent float64
}

type CPUDetail struct {
	Cores       int
	Threads     int
	Percent     float64
	PerCore     []float64
	FreqCurrent float64
	FreqMax     float64
}

// Source produces metric snapshots on demand.
type Source interface {
	Snapshot() (Snapshot, error)
}
