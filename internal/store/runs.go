package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultRunsTable = "optimisation_runs"

// RunRecord is one persisted solve.
type RunRecord struct {
	ID             string
	Scenario       string
	Variant        string
	Status         string
	ObjectiveDKK   float64
	BatterySizeKWh *float64
	// Summary and Schedule are stored as JSONB.
	Summary   any
	Schedule  any
	CreatedAt time.Time
}

// RunStore persists optimisation runs in Postgres.
type RunStore struct {
	db    *sql.DB
	table string
}

// Open connects through the pgx database/sql driver and pings the server.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// RunStoreOption configures the run store.
type RunStoreOption func(*RunStore)

// WithRunsTable overrides the table name.
func WithRunsTable(table string) RunStoreOption {
	return func(s *RunStore) {
		if table != "" {
			s.table = table
		}
	}
}

func NewRunStore(db *sql.DB, opts ...RunStoreOption) *RunStore {
	s := &RunStore{db: db, table: defaultRunsTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the runs table if it does not exist.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("run store: nil db")
	}
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	scenario TEXT NOT NULL,
	variant TEXT NOT NULL,
	status TEXT NOT NULL,
	objective_dkk DOUBLE PRECISION NOT NULL,
	battery_size_kwh DOUBLE PRECISION,
	summary JSONB,
	schedule JSONB,
	created_at TIMESTAMPTZ NOT NULL
)`, s.table)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// SaveRun inserts rec and returns its ID. A missing ID or timestamp is filled in.
func (s *RunStore) SaveRun(ctx context.Context, rec RunRecord) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("run store: nil db")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	schedule, err := json.Marshal(rec.Schedule)
	if err != nil {
		return "", fmt.Errorf("marshal schedule: %w", err)
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	scenario,
	variant,
	status,
	objective_dkk,
	battery_size_kwh,
	summary,
	schedule,
	created_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9
)`, s.table)

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.Scenario, rec.Variant, rec.Status, rec.ObjectiveDKK,
		rec.BatterySizeKWh, summary, schedule, rec.CreatedAt)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// RunInfo is a listing row.
type RunInfo struct {
	ID           string    `json:"id"`
	Scenario     string    `json:"scenario"`
	Variant      string    `json:"variant"`
	Status       string    `json:"status"`
	ObjectiveDKK float64   `json:"objective_dkk"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListRuns returns the latest runs, newest first. An empty scenario lists
// runs of every scenario.
func (s *RunStore) ListRuns(ctx context.Context, scenario string, limit int) ([]RunInfo, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("run store: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
SELECT id, scenario, variant, status, objective_dkk, created_at
FROM %s
WHERE ($1::text = '' OR scenario = $1)
ORDER BY created_at DESC
LIMIT $2`, s.table)

	rows, err := s.db.QueryContext(ctx, query, scenario, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.ID, &r.Scenario, &r.Variant, &r.Status, &r.ObjectiveDKK, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
