package history

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/servwatch/internal/collector"
	"codeberg.org/mutker/servwatch/internal/errors"
	"codeberg.org/mutker/servwatch/internal/logger"
)

const pruneInterval = time.Hour

type repoService struct {
	repo Repository
	cfg  Config

	mu        sync.Mutex
	lastPrune time.Time
}

// No-op implementation used when history is disabled
type noopRecorder struct{}

func NewService(cfg Config) (Recorder, error) {
	if !cfg.Enabled {
		logger.Debug().Msg("History disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("path", cfg.DBPath).
		Int("retention_days", cfg.RetentionDays).
		Msg("History recorder initialized")

	return &repoService{repo: repo, cfg: cfg}, nil
}

func (s *repoService) Record(ctx context.Context, snapshot *collector.Snapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidSample)
	}

	sample := reduce(snapshot)
	if err := s.repo.Store(ctx, &sample); err != nil {
		return err
	}

	s.maybePrune(ctx)

	return nil
}

func (s *repoService) Summary(ctx context.Context, since time.Time) (Summary, error) {
	return s.repo.Summary(ctx, since)
}

func (s *repoService) Close() error {
	return s.repo.Close()
}

func (s *repoService) maybePrune(ctx context.Context) {
	if s.cfg.RetentionDays <= 0 {
		return
	}

	s.mu.Lock()
	due := time.Since(s.lastPrune) >= pruneInterval
	if due {
		s.lastPrune = time.Now()
	}
	s.mu.Unlock()

	if !due {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	if err := s.repo.Prune(ctx, cutoff); err != nil {
		logger.Warn().Err(err).Msg("History pruning failed")
	}
}

// reduce folds a snapshot into the persisted sample shape, keeping the
// worst reading of each variable-length sequence.
func reduce(snapshot *collector.Snapshot) Sample {
	sample := Sample{
		Timestamp:     snapshot.Timestamp,
		CPUPercent:    snapshot.CPUPercent,
		MemoryPercent: snapshot.Memory.Percent,
	}

	for _, d := range snapshot.Disks {
		if d.Percent > sample.MaxDiskPercent {
			sample.MaxDiskPercent = d.Percent
		}
	}

	for _, g := range snapshot.GPUs {
		if g.Temperature > sample.MaxGPUTemp {
			sample.MaxGPUTemp = g.Temperature
		}
		if g.MemoryPercent > sample.MaxGPUMemory {
			sample.MaxGPUMemory = g.MemoryPercent
		}
	}

	return sample
}

func (*noopRecorder) Record(_ context.Context, _ *collector.Snapshot) error {
	return nil
}

func (*noopRecorder) Summary(_ context.Context, _ time.Time) (Summary, error) {
	return Summary{}, nil
}

func (*noopRecorder) Close() error {
	return nil
}
