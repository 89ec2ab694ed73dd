package alerter

import (
	"strconv"
	"sync"
	"time"

	"codeberg.org/mutker/servwatch/internal/collector"
	"codeberg.org/mutker/servwatch/internal/logger"
)

// Classify maps a value onto a severity given a warning/critical pair.
// The critical check runs first, so a value satisfying both thresholds
// is Critical only.
func Classify(value, warning, critical float64) Severity {
	if value >= critical {
		return SeverityCritical
	}
	if value >= warning {
		return SeverityWarning
	}

	return SeverityNone
}

// Engine evaluates snapshots against thresholds and emits alerts through
// the injected Notifier, suppressing repeats per key within the cooldown
// window. Safe for concurrent Evaluate calls; the per-key check-and-set
// is atomic under the store lock.
type Engine struct {
	cfg      Config
	server   string
	notifier Notifier
	now      func() time.Time

	mu        sync.Mutex
	lastFired map[string]time.Time
}

func New(cfg Config, server string, notifier Notifier) *Engine {
	return &Engine{
		cfg:       cfg,
		server:    server,
		notifier:  notifier,
		now:       time.Now,
		lastFired: make(map[string]time.Time),
	}
}

// tryAcquire grants permission to fire for key and reserves its cooldown
// slot. The slot stays reserved even if the subsequent delivery fails:
// re-attempting on a flaky transport would defeat the spam suppression.
func (e *Engine) tryAcquire(key string, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if last, ok := e.lastFired[key]; ok && now.Sub(last) < e.cfg.Cooldown {
		return false
	}
	e.lastFired[key] = now

	return true
}

// Evaluate runs all category checks against one snapshot, in a fixed
// order, and returns the events that fired. Notification failures are
// logged and never stop later categories.
func (e *Engine) Evaluate(snapshot collector.Snapshot) []Event {
	var fired []Event

	fired = append(fired, e.checkCPU(snapshot.CPUPercent)...)
	fired = append(fired, e.checkMemory(snapshot.Memory.Percent)...)
	fired = append(fired, e.checkDisks(snapshot.Disks)...)
	fired = append(fired, e.checkGPUTemp(snapshot.GPUs)...)
	fired = append(fired, e.checkGPUMemory(snapshot.GPUs)...)

	return fired
}

func (e *Engine) checkCPU(percent float64) []Event {
	return e.emit(Event{
		Category: CategoryCPU,
		Severity: Classify(percent, e.cfg.CPUWarning, e.cfg.CPUCritical),
		Value:    percent,
		Server:   e.server,
	})
}

func (e *Engine) checkMemory(percent float64) []Event {
	return e.emit(Event{
		Category: CategoryMemory,
		Severity: Classify(percent, e.cfg.MemoryWarning, e.cfg.MemoryCritical),
		Value:    percent,
		Server:   e.server,
	})
}

func (e *Engine) checkDisks(disks []collector.DiskUsage) []Event {
	var fired []Event
	for _, d := range disks {
		fired = append(fired, e.emit(Event{
			Category: CategoryDisk,
			Severity: Classify(d.Percent, e.cfg.DiskWarning, e.cfg.DiskCritical),
			Target:   d.Mountpoint,
			Value:    d.Percent,
			Server:   e.server,
		})...)
	}

	return fired
}

func (e *Engine) checkGPUTemp(gpus []collector.GPUReading) []Event {
	var fired []Event
	for _, g := range gpus {
		fired = append(fired, e.emit(Event{
			Category: CategoryGPUTemp,
			Severity: Classify(float64(g.Temperature), e.cfg.GPUTempWarning, e.cfg.GPUTempCritical),
			Target:   strconv.Itoa(g.Index),
			Value:    float64(g.Temperature),
			Server:   e.server,
		})...)
	}

	return fired
}

func (e *Engine) checkGPUMemory(gpus []collector.GPUReading) []Event {
	var fired []Event
	for _, g := range gpus {
		fired = append(fired, e.emit(Event{
			Category: CategoryGPUMemory,
			Severity: Classify(g.MemoryPercent, e.cfg.GPUMemoryWarning, e.cfg.GPUMemoryCritical),
			Target:   strconv.Itoa(g.Index),
			Value:    g.MemoryPercent,
			Server:   e.server,
		})...)
	}

	return fired
}

// emit gates the event and, if the slot was acquired, hands it to the
// notifier. The event counts as fired once the slot is taken, delivered
// or not.
func (e *Engine) emit(event Event) []Event {
	if event.Severity == SeverityNone {
		return nil
	}

	if !e.tryAcquire(event.Key(), e.now()) {
		logger.Debug().Str("key", event.Key()).Msg("Alert suppressed by cooldown")
		return nil
	}

	logger.Info().
		Str("key", event.Key()).
		Float64("value", event.Value).
		Msg("Alert fired")

	if err := e.notifier.Send(event); err != nil {
		logger.Error().Str("key", event.Key()).Err(err).Msg("Alert delivery failed")
	}

	return []Event{event}
}
