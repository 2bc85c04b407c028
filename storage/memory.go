package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/patrickmn/go-cache"

	"property-valuation/apperrors"
	"property-valuation/models"
)

// MemoryRunStore keeps ingestion runs in a map. It is safe for concurrent use.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]*models.IngestionRun
}

// NewMemoryRunStore creates an empty MemoryRunStore.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[string]*models.IngestionRun)}
}

func (s *MemoryRunStore) Save(_ context.Context, run *models.IngestionRun) error {
	cp, err := copyRun(run)
	if err != nil {
		return apperrors.Storage("memory.Save", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = cp
	return nil
}

func (s *MemoryRunStore) Get(_ context.Context, runID string) (*models.IngestionRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("memory.Get", "ingestion run %q not found", runID)
	}
	cp, err := copyRun(run)
	if err != nil {
		return nil, apperrors.Storage("memory.Get", err)
	}
	return cp, nil
}

func (s *MemoryRunStore) List(_ context.Context, limit int) ([]models.IngestionRunSummary, error) {
	s.mu.RLock()
	out := make([]models.IngestionRunSummary, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.SummaryView())
	}
	s.mu.RUnlock()
	return newestFirst(out, limit), nil
}

func (s *MemoryRunStore) Close() error { return nil }

// copyRun deep-copies through JSON, the same encoding the durable stores use.
func copyRun(run *models.IngestionRun) (*models.IngestionRun, error) {
	b, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}
	var cp models.IngestionRun
	if err := json.Unmarshal(b, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func newestFirst(runs []models.IngestionRunSummary, limit int) []models.IngestionRunSummary {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].RunID > runs[j].RunID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs
}

// MemoryComparableStore keeps comparable runs in a non-expiring cache.
type MemoryComparableStore struct {
	cache *cache.Cache
}

// NewMemoryComparableStore creates an empty store.
func NewMemoryComparableStore() *MemoryComparableStore {
	return &MemoryComparableStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryComparableStore) Put(run *models.ComparableRun) {
	s.cache.Set(run.RunID, run.Clone(), cache.NoExpiration)
}

func (s *MemoryComparableStore) Get(runID string) (*models.ComparableRun, error) {
	v, ok := s.cache.Get(runID)
	if !ok {
		return nil, apperrors.NotFound("comparables.Get", "comparable run %q not found", runID)
	}
	return v.(*models.ComparableRun).Clone(), nil
}

// MemoryReportStore keeps reports in a map.
type MemoryReportStore struct {
	mu      sync.RWMutex
	reports map[string]models.Report
}

// NewMemoryReportStore creates an empty store.
func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{reports: make(map[string]models.Report)}
}

func (s *MemoryReportStore) Put(report *models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = cloneReport(*report)
}

func (s *MemoryReportStore) Get(reportID string) (*models.Report, error) {
	s.mu.RLock()
	r, ok := s.reports[reportID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("reports.Get", "report %q not found", reportID)
	}
	cp := cloneReport(r)
	return &cp, nil
}

func cloneReport(r models.Report) models.Report {
	r.Issues = append([]string(nil), r.Issues...)
	r.Valuation.RejectedOutliers = append([]string(nil), r.Valuation.RejectedOutliers...)
	r.Valuation.Rationale = append([]string(nil), r.Valuation.Rationale...)
	return r
}

// MemoryAuditLog is an append-only slice guarded by a mutex.
type MemoryAuditLog struct {
	mu     sync.RWMutex
	events []models.AuditEvent
}

// NewMemoryAuditLog creates an empty log.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

func (l *MemoryAuditLog) Append(_ context.Context, event models.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *MemoryAuditLog) Recent(_ context.Context, limit int) ([]models.AuditEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.AuditEvent, 0, n)
	for i := len(l.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.events[i])
	}
	return out, nil
}

// Len returns the number of events recorded.
func (l *MemoryAuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
