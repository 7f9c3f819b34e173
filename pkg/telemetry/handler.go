package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
)

// DuckDBHandler is a slog.Handler that mirrors error-level records into
// DuckDB alongside the run history, so failures can be correlated with the
// runs that produced them.
type DuckDBHandler struct {
	next slog.Handler
	db   *sql.DB
}

// NewDuckDBHandler wraps next, writing errors to db.
func NewDuckDBHandler(next slog.Handler, db *sql.DB) (*DuckDBHandler, error) {
	h := &DuckDBHandler{
		next: next,
		db:   db,
	}

	if err := h.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return h, nil
}

func (h *DuckDBHandler) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS maintenance_errors (
		id VARCHAR,
		timestamp TIMESTAMP,
		level VARCHAR,
		message VARCHAR,
		source_file VARCHAR,
		line_number INTEGER,
		attributes JSON
	);
	`
	_, err := h.db.Exec(query)
	return err
}

// Enabled implements slog.Handler
func (h *DuckDBHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *DuckDBHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level < slog.LevelError {
		return nil
	}

	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	attrsJSON, _ := json.Marshal(attrs)

	fs := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := fs.Next()

	query := `
	INSERT INTO maintenance_errors (
		id, timestamp, level, message, source_file, line_number, attributes
	) VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	// The write stays off the logging hot path; a failed insert falls
	// back to stderr.
	go func() {
		_, err := h.db.Exec(query,
			uuid.New().String(), r.Time.UTC(), r.Level.String(), r.Message,
			f.File, f.Line, string(attrsJSON),
		)
		if err != nil {
			fmt.Printf("failed to log error to duckdb: %v\n", err)
		}
	}()

	return nil
}

// WithAttrs implements slog.Handler
func (h *DuckDBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DuckDBHandler{
		next: h.next.WithAttrs(attrs),
		db:   h.db,
	}
}

// WithGroup implements slog.Handler
func (h *DuckDBHandler) WithGroup(name string) slog.Handler {
	return &DuckDBHandler{
		next: h.next.WithGroup(name),
		db:   h.db,
	}
}
