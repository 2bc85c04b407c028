package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"property-valuation/apperrors"
	"property-valuation/models"
	"property-valuation/utils"
)

// PostgresStore persists ingestion runs and audit events in PostgreSQL. It
// implements both RunStore and AuditLog.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it with
// retry, runs schema migrations, and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second}
	}
	if err := retry.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ingestion_runs (
			run_id      TEXT        PRIMARY KEY,
			created_by  TEXT        NOT NULL DEFAULT 'system',
			created_at  TIMESTAMPTZ NOT NULL,
			summary     JSONB       NOT NULL,
			payload     JSONB       NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_ingestion_runs_created_at ON ingestion_runs(created_at DESC);

		CREATE TABLE IF NOT EXISTS audit_events (
			seq         BIGSERIAL   PRIMARY KEY,
			id          TEXT        UNIQUE NOT NULL,
			entity_type TEXT        NOT NULL,
			entity_id   TEXT        NOT NULL,
			event_type  TEXT        NOT NULL,
			payload     JSONB       NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_audit_events_entity ON audit_events(entity_type, entity_id);
	`)
	return err
}

// Save upserts a run keyed by run id.
func (ps *PostgresStore) Save(ctx context.Context, run *models.IngestionRun) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return apperrors.Storage("postgres.Save", err)
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return apperrors.Storage("postgres.Save", err)
	}

	_, err = ps.db.ExecContext(ctx, `
		INSERT INTO ingestion_runs (run_id, created_by, created_at, summary, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO UPDATE SET
			created_by = EXCLUDED.created_by,
			created_at = EXCLUDED.created_at,
			summary    = EXCLUDED.summary,
			payload    = EXCLUDED.payload
	`, run.RunID, run.CreatedBy, run.CreatedAt, summary, payload)
	if err != nil {
		return apperrors.Storage("postgres.Save", err)
	}
	return nil
}

func (ps *PostgresStore) Get(ctx context.Context, runID string) (*models.IngestionRun, error) {
	var payload []byte
	err := ps.db.QueryRowContext(ctx,
		`SELECT payload FROM ingestion_runs WHERE run_id = $1`, runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("postgres.Get", "ingestion run %q not found", runID)
	}
	if err != nil {
		return nil, apperrors.Storage("postgres.Get", err)
	}

	var run models.IngestionRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, apperrors.Storage("postgres.Get", fmt.Errorf("decode run %s: %w", runID, err))
	}
	return &run, nil
}

func (ps *PostgresStore) List(ctx context.Context, limit int) ([]models.IngestionRunSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := ps.db.QueryContext(ctx, `
		SELECT run_id, created_by, created_at, summary
		FROM ingestion_runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.Storage("postgres.List", err)
	}
	defer rows.Close()

	var out []models.IngestionRunSummary
	for rows.Next() {
		var (
			s       models.IngestionRunSummary
			summary []byte
		)
		if err := rows.Scan(&s.RunID, &s.CreatedBy, &s.CreatedAt, &summary); err != nil {
			return nil, apperrors.Storage("postgres.List", fmt.Errorf("scan row: %w", err))
		}
		if err := json.Unmarshal(summary, &s.Summary); err != nil {
			return nil, apperrors.Storage("postgres.List", fmt.Errorf("decode summary: %w", err))
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("postgres.List", err)
	}
	return out, nil
}

// Append inserts one audit event. Events are never updated or deleted.
func (ps *PostgresStore) Append(ctx context.Context, event models.AuditEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return apperrors.Storage("postgres.Append", err)
	}
	_, err = ps.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, entity_type, entity_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.EntityType, event.EntityID, event.EventType, payload, event.CreatedAt)
	if err != nil {
		return apperrors.Storage("postgres.Append", err)
	}
	return nil
}

// Recent returns up to limit events, newest first by insertion order.
func (ps *PostgresStore) Recent(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, event_type, payload, created_at
		FROM audit_events
		ORDER BY seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.Storage("postgres.Recent", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var (
			e       models.AuditEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, apperrors.Storage("postgres.Recent", fmt.Errorf("scan row: %w", err))
		}
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, apperrors.Storage("postgres.Recent", fmt.Errorf("decode payload: %w", err))
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("postgres.Recent", err)
	}
	return events, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
