package models

import "time"

// Audited entity types.
const (
	EntityIngestionRun  = "ingestion_run"
	EntityComparableRun = "comparable_run"
	EntityReport        = "report"
)

// Audit event types.
const (
	EventIngestionRun       = "ingestion_run_created"
	EventComparableSearch   = "comparable_search"
	EventAdjustmentOverride = "adjustment_override"
	EventValuation          = "valuation_computed"
	EventReportCreated      = "report_created"
	EventReportFinalized    = "report_finalized"
)

// AuditEvent is an immutable log entry. The log is append-only.
type AuditEvent struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	EventType  string         `json:"eventType"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  time.Time      `json:"createdAt"`
}
