package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"property-valuation/models"
	"property-valuation/storage"
)

// DefaultAuditLimit is the number of events Recent returns when asked for
// zero or fewer.
const DefaultAuditLimit = 500

// Ledger appends audit events to an append-only log.
type Ledger struct {
	log   storage.AuditLog
	limit int
	now   func() time.Time
}

// NewLedger wraps log. limit <= 0 selects DefaultAuditLimit.
func NewLedger(log storage.AuditLog, limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	return &Ledger{log: log, limit: limit, now: time.Now}
}

// Record appends one event and returns it.
func (l *Ledger) Record(ctx context.Context, entityType, entityID, eventType string, payload map[string]any) (models.AuditEvent, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	event := models.AuditEvent{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		EventType:  eventType,
		Payload:    payload,
		CreatedAt:  l.now().UTC(),
	}
	if err := l.log.Append(ctx, event); err != nil {
		return models.AuditEvent{}, err
	}
	return event, nil
}

// Recent returns at most n events, newest first.
func (l *Ledger) Recent(ctx context.Context, n int) ([]models.AuditEvent, error) {
	if n <= 0 || n > l.limit {
		n = l.limit
	}
	events, err := l.log.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	return events, nil
}
