// Package database persists completed batch jobs in Postgres.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/locusaudit/merchant-validation/internal/batch"
	"github.com/locusaudit/merchant-validation/internal/config"
	"github.com/locusaudit/merchant-validation/internal/validation"
)

// Repository stores batch jobs in Postgres. Results are kept as JSONB so a
// stored job round-trips losslessly.
type Repository struct {
	db             *sql.DB
	migrationsPath string
	logger         *slog.Logger
}

// NewRepository opens a pooled connection and verifies it with a ping.
func NewRepository(cfg config.DatabaseConfig, dsn string, logger *slog.Logger) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections / 2)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		migrationsPath: cfg.MigrationsPath,
		logger:         logger,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Migrate runs database migrations.
func (r *Repository) Migrate() error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+r.migrationsPath,
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Info("database migrations completed")
	return nil
}

// SaveJob upserts a batch job with its full result set.
func (r *Repository) SaveJob(ctx context.Context, job *batch.Job) error {
	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("failed to encode batch results: %w", err)
	}

	query := `
		INSERT INTO batch_jobs (
			id, status, total_items, processed_items, created_at, completed_at, results
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			processed_items = EXCLUDED.processed_items,
			completed_at = EXCLUDED.completed_at,
			results = EXCLUDED.results`

	_, err = r.db.ExecContext(ctx, query,
		job.ID,
		string(job.Status),
		job.TotalItems,
		job.ProcessedItems,
		job.CreatedAt,
		job.CompletedAt,
		results,
	)
	if err != nil {
		return fmt.Errorf("failed to save batch job: %w", err)
	}
	return nil
}

// GetJob loads a batch job by identifier. A missing job returns (nil, nil).
func (r *Repository) GetJob(ctx context.Context, id string) (*batch.Job, error) {
	query := `
		SELECT id, status, total_items, processed_items, created_at, completed_at, results
		FROM batch_jobs WHERE id = $1`

	var (
		job         batch.Job
		status      string
		completedAt sql.NullTime
		results     []byte
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&status,
		&job.TotalItems,
		&job.ProcessedItems,
		&job.CreatedAt,
		&completedAt,
		&results,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load batch job: %w", err)
	}

	job.Status = batch.JobStatus(status)
	if completedAt.Valid {
		done := completedAt.Time.UTC()
		job.CompletedAt = &done
	}
	job.CreatedAt = job.CreatedAt.UTC()
	if len(results) > 0 {
		var decoded []*validation.Result
		if err := json.Unmarshal(results, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode batch results: %w", err)
		}
		job.Results = decoded
	}
	return &job, nil
}

// PurgeBefore deletes completed and failed jobs created before the cutoff.
func (r *Repository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM batch_jobs WHERE created_at < $1 AND status IN ('COMPLETED', 'FAILED')`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge batch jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged jobs: %w", err)
	}
	return n, nil
}
