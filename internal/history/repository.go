package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/servwatch/internal/errors"
	"codeberg.org/mutker/servwatch/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

const defaultDirPerm = 0o755

const createTableSQL = `
    CREATE TABLE IF NOT EXISTS samples (
        timestamp        INTEGER PRIMARY KEY,
        cpu_percent      REAL NOT NULL,
        memory_percent   REAL NOT NULL,
        max_disk_percent REAL NOT NULL,
        max_gpu_temp     INTEGER NOT NULL,
        max_gpu_memory   REAL NOT NULL
    )`

type Repository interface {
	Store(ctx context.Context, sample *Sample) error
	Summary(ctx context.Context, since time.Time) (Summary, error)
	Prune(ctx context.Context, before time.Time) error
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing history repository at: %s", cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal=WAL")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	return &sqliteRepository{db: db}, nil
}

func (r *sqliteRepository) Store(ctx context.Context, sample *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO samples (
            timestamp, cpu_percent, memory_percent,
            max_disk_percent, max_gpu_temp, max_gpu_memory
        ) VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            cpu_percent = excluded.cpu_percent,
            memory_percent = excluded.memory_percent,
            max_disk_percent = excluded.max_disk_percent,
            max_gpu_temp = excluded.max_gpu_temp,
            max_gpu_memory = excluded.max_gpu_memory
    `,
		sample.Timestamp.Unix(),
		sample.CPUPercent,
		sample.MemoryPercent,
		sample.MaxDiskPercent,
		sample.MaxGPUTemp,
		sample.MaxGPUMemory,
	)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Summary(ctx context.Context, since time.Time) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var summary Summary
	err := r.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(AVG(cpu_percent), 0),
            COALESCE(MAX(cpu_percent), 0),
            COALESCE(AVG(memory_percent), 0),
            COALESCE(MAX(memory_percent), 0),
            COALESCE(MAX(max_disk_percent), 0),
            COALESCE(MAX(max_gpu_temp), 0)
        FROM samples
        WHERE timestamp >= ?
    `, since.Unix()).Scan(
		&summary.Samples,
		&summary.AvgCPU,
		&summary.MaxCPU,
		&summary.AvgMemory,
		&summary.MaxMemory,
		&summary.MaxDisk,
		&summary.MaxGPUTemp,
	)
	if err != nil {
		return Summary{}, errors.New().Wrap(ErrStorageAccess, err)
	}

	return summary, nil
}

func (r *sqliteRepository) Prune(ctx context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx, `DELETE FROM samples WHERE timestamp < ?`, before.Unix())
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		logger.Debug().Int64("rows", rows).Msg("Pruned history samples")
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}
