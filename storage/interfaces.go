package storage

import (
	"context"

	"property-valuation/models"
)

// RunStore persists ingestion runs. Save with an existing run id overwrites
// it; List returns newest first.
type RunStore interface {
	Save(ctx context.Context, run *models.IngestionRun) error
	Get(ctx context.Context, runID string) (*models.IngestionRun, error)
	List(ctx context.Context, limit int) ([]models.IngestionRunSummary, error)
	Close() error
}

// ComparableStore holds comparable runs for the lifetime of the process.
// Implementations store and return copies, so callers replace whole values.
type ComparableStore interface {
	Put(run *models.ComparableRun)
	Get(runID string) (*models.ComparableRun, error)
}

// ReportStore holds valuation reports.
type ReportStore interface {
	Put(report *models.Report)
	Get(reportID string) (*models.Report, error)
}

// AuditLog is the append-only event log. Recent returns newest first.
type AuditLog interface {
	Append(ctx context.Context, event models.AuditEvent) error
	Recent(ctx context.Context, limit int) ([]models.AuditEvent, error)
}

// CleanedRecordWriter exports cleaned records, e.g. to CSV.
type CleanedRecordWriter interface {
	WriteCleaned(records []models.CleanedRecord) error
	Close() error
}
