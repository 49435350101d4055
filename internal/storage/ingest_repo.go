package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// IngestRunRepo records completed ingestions so the server can report which
// index version it is answering from.
type IngestRunRepo struct {
	db *sql.DB
}

// NewIngestRunRepo creates a new IngestRunRepo.
func NewIngestRunRepo(db *sql.DB) *IngestRunRepo {
	return &IngestRunRepo{db: db}
}

// Record stores a finished run and sets run.ID.
func (r *IngestRunRepo) Record(ctx context.Context, run *IngestRun) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (index_version, backend, files_scanned, blocks_seen, blocks_dropped, records_indexed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.IndexVersion, run.Backend, run.FilesScanned, run.BlocksSeen, run.BlocksDropped, run.RecordsIndexed,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingest run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get ingest run id: %w", err)
	}
	run.ID = id
	return nil
}

// Latest returns the most recent run, or ErrNotFound if none was recorded.
func (r *IngestRunRepo) Latest(ctx context.Context) (*IngestRun, error) {
	var (
		run        IngestRun
		finishedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, index_version, backend, files_scanned, blocks_seen, blocks_dropped, records_indexed, finished_at
		 FROM ingest_runs ORDER BY id DESC LIMIT 1`,
	).Scan(&run.ID, &run.IndexVersion, &run.Backend, &run.FilesScanned, &run.BlocksSeen,
		&run.BlocksDropped, &run.RecordsIndexed, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest run: %w", err)
	}

	if run.FinishedAt, err = parseTimestamp(finishedAt); err != nil {
		return nil, fmt.Errorf("failed to parse finished_at timestamp: %w", err)
	}
	return &run, nil
}
