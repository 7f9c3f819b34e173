// Package telemetry persists maintenance run reports and error logs to a
// local DuckDB database, giving each deployment a queryable history of what
// maintenance did to the graph.
package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/soundprediction/go-livemem/pkg/types"
)

// Store writes run reports to DuckDB. It satisfies the engine's RunRecorder
// interface.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the DuckDB database at path. An empty path
// opens an in-memory database.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// DB exposes the underlying handle so an slog handler can share it.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS maintenance_runs (
		run_id VARCHAR,
		started_at TIMESTAMP,
		finished_at TIMESTAMP,
		dry_run BOOLEAN,
		groups_consolidated INTEGER,
		nodes_merged INTEGER,
		edges_created INTEGER,
		nodes_rescored INTEGER,
		nodes_archived INTEGER,
		nodes_deleted INTEGER,
		error_count INTEGER,
		errors JSON,
		health JSON
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// RecordRun persists one finished run report.
func (s *Store) RecordRun(ctx context.Context, report *types.MaintenanceReport) error {
	errorsJSON, err := json.Marshal(report.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal run errors: %w", err)
	}
	healthJSON, err := json.Marshal(report.Health)
	if err != nil {
		return fmt.Errorf("failed to marshal health report: %w", err)
	}

	query := `
	INSERT INTO maintenance_runs (
		run_id, started_at, finished_at, dry_run,
		groups_consolidated, nodes_merged, edges_created,
		nodes_rescored, nodes_archived, nodes_deleted,
		error_count, errors, health
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = s.db.ExecContext(ctx, query,
		report.RunID, report.StartedAt.UTC(), report.FinishedAt.UTC(), report.DryRun,
		report.GroupsConsolidated, report.NodesMerged, report.EdgesCreated,
		report.NodesRescored, report.NodesArchived, report.NodesDeleted,
		len(report.Errors), string(errorsJSON), string(healthJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run report: %w", err)
	}
	return nil
}

// RunSummary is one row of run history.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	DryRun       bool      `json:"dry_run"`
	TotalActions int       `json:"total_actions"`
	ErrorCount   int       `json:"error_count"`
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
	SELECT run_id, started_at, finished_at, dry_run,
	       nodes_merged + edges_created + nodes_archived + nodes_deleted,
	       error_count
	FROM maintenance_runs
	ORDER BY started_at DESC
	LIMIT ?;
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.RunID, &run.StartedAt, &run.FinishedAt,
			&run.DryRun, &run.TotalActions, &run.ErrorCount); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
