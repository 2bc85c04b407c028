package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"property-valuation/apperrors"
	"property-valuation/metrics"
	"property-valuation/models"
	"property-valuation/storage"
	"property-valuation/utils"
)

// DefaultMaxPoolSize caps the comparables pool accepted by Search.
const DefaultMaxPoolSize = 1000

// DefaultActor is recorded when a request names no creator.
const DefaultActor = "system"

// Stores groups the persistence collaborators of an Engine.
type Stores struct {
	Runs        storage.RunStore
	Comparables storage.ComparableStore
	Reports     storage.ReportStore
	Audit       storage.AuditLog
}

// MemoryStores returns in-process implementations of every store.
func MemoryStores() Stores {
	return Stores{
		Runs:        storage.NewMemoryRunStore(),
		Comparables: storage.NewMemoryComparableStore(),
		Reports:     storage.NewMemoryReportStore(),
		Audit:       storage.NewMemoryAuditLog(),
	}
}

// EngineOptions configures an Engine. Zero values select defaults.
type EngineOptions struct {
	Cleaner         *Cleaner
	Ranker          *Ranker
	Aggregator      *Aggregator
	Metrics         *metrics.ValuationMetrics
	DefaultTopK     int
	MaxPoolSize     int
	DefaultStrategy string
	AuditLimit      int
	Now             func() time.Time
}

// Engine runs ingestion, comparable search, overrides, valuations and
// reports, recording one audit event per state-changing action.
type Engine struct {
	logger      *utils.Logger
	stores      Stores
	ledger      *Ledger
	cleaner     *Cleaner
	ranker      *Ranker
	aggregator  *Aggregator
	metrics     *metrics.ValuationMetrics
	topK        int
	maxPoolSize int
	strategy    string
	now         func() time.Time

	// mu serialises read-modify-write of comparable runs and reports.
	mu sync.Mutex
}

// NewEngine wires an Engine over stores.
func NewEngine(logger *utils.Logger, stores Stores, opts EngineOptions) *Engine {
	e := &Engine{
		logger:      logger,
		stores:      stores,
		ledger:      NewLedger(stores.Audit, opts.AuditLimit),
		cleaner:     opts.Cleaner,
		ranker:      opts.Ranker,
		aggregator:  opts.Aggregator,
		metrics:     opts.Metrics,
		topK:        opts.DefaultTopK,
		maxPoolSize: opts.MaxPoolSize,
		strategy:    opts.DefaultStrategy,
		now:         opts.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.cleaner == nil {
		e.cleaner = NewCleaner(logger).WithClock(e.now)
	}
	if e.ranker == nil {
		e.ranker = NewRanker(NewScorer(false), 4).WithClock(e.now)
	}
	if e.aggregator == nil {
		e.aggregator = NewAggregator(DefaultIQRMultiplier, DefaultHedonicBlend)
	}
	if e.maxPoolSize <= 0 {
		e.maxPoolSize = DefaultMaxPoolSize
	}
	if e.strategy == "" {
		e.strategy = models.StrategyWeightedMean
	}
	e.ledger.now = e.now
	return e
}

// Ledger exposes the audit ledger for read access.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// IngestRequest carries one batch of raw records. Elements are expected to
// be JSON objects; anything else is rejected per record.
type IngestRequest struct {
	Transactions []any  `json:"transactions"`
	Listings     []any  `json:"listings"`
	CreatedBy    string `json:"createdBy,omitempty"`
}

// Ingest cleans both kinds, audits the run and then persists it.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (*models.IngestionRun, error) {
	if req.Transactions == nil && req.Listings == nil {
		return nil, apperrors.Validation("engine.Ingest", "transactions or listings required")
	}

	run := &models.IngestionRun{
		RunID:        uuid.NewString(),
		CreatedBy:    actorOrDefault(req.CreatedBy),
		CreatedAt:    e.now().UTC(),
		Transactions: e.cleaner.Clean(req.Transactions, models.KindTransaction),
		Listings:     e.cleaner.Clean(req.Listings, models.KindListing),
	}
	run.Summary = summarize(run.Transactions, run.Listings)

	if _, err := e.ledger.Record(ctx, models.EntityIngestionRun, run.RunID, models.EventIngestionRun, map[string]any{
		"createdBy":     run.CreatedBy,
		"totalInput":    run.Summary.TotalInput,
		"cleaned":       run.Summary.Cleaned,
		"duplicates":    run.Summary.Duplicates,
		"errors":        run.Summary.Errors,
		"avgConfidence": run.Summary.AvgConfidence,
	}); err != nil {
		return nil, err
	}
	if err := e.stores.Runs.Save(ctx, run); err != nil {
		return nil, err
	}

	for _, kr := range []models.KindResult{run.Transactions, run.Listings} {
		e.metrics.RecordIngestion(kr.Kind, kr.Stats.CleanCount, kr.Stats.DuplicateCount, kr.Stats.ErrorCount)
	}
	e.logger.Info("[engine] ingestion %s: %d in, %d clean, %d duplicate, %d rejected",
		run.RunID, run.Summary.TotalInput, run.Summary.Cleaned, run.Summary.Duplicates, run.Summary.Errors)
	return run, nil
}

func summarize(kinds ...models.KindResult) models.RunSummary {
	var s models.RunSummary
	var confSum float64
	for _, k := range kinds {
		s.TotalInput += k.Total
		s.Cleaned += len(k.Cleaned)
		s.Duplicates += len(k.Duplicates)
		s.Errors += len(k.Errors)
		for _, r := range k.Cleaned {
			confSum += r.ConfidenceScore
		}
	}
	if s.Cleaned > 0 {
		s.AvgConfidence = round4(confSum / float64(s.Cleaned))
	}
	return s
}

// GetRun returns a stored ingestion run.
func (e *Engine) GetRun(ctx context.Context, runID string) (*models.IngestionRun, error) {
	return e.stores.Runs.Get(ctx, runID)
}

// ListRuns returns run summaries newest first.
func (e *Engine) ListRuns(ctx context.Context, limit int) ([]models.IngestionRunSummary, error) {
	runs, err := e.stores.Runs.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []models.IngestionRunSummary{}
	}
	return runs, nil
}

// SearchRequest asks for the comparables of subject within pool.
type SearchRequest struct {
	Subject     models.Property   `json:"subject"`
	Pool        []models.Property `json:"comparablesPool"`
	TopK        int               `json:"topK,omitempty"`
	RequestedBy string            `json:"requestedBy,omitempty"`
}

// SearchResult is the public projection of a stored ComparableRun.
type SearchResult struct {
	RunID       string                       `json:"runId"`
	ElapsedMs   int64                        `json:"elapsedMs"`
	Comparables []models.ComparableCandidate `json:"comparables"`
}

// Search ranks the pool against the subject and stores the run. An empty
// pool yields an empty, stored run.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if len(req.Pool) > e.maxPoolSize {
		return nil, apperrors.Validation("engine.Search", "comparables pool of %d exceeds the limit of %d", len(req.Pool), e.maxPoolSize)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = e.topK
	}

	start := time.Now()
	candidates := e.ranker.Rank(req.Subject, req.Pool, topK)
	elapsed := time.Since(start)

	run := &models.ComparableRun{
		RunID:       uuid.NewString(),
		Subject:     req.Subject,
		Comparables: candidates,
		RequestedBy: actorOrDefault(req.RequestedBy),
		CreatedAt:   e.now().UTC(),
	}
	if _, err := e.ledger.Record(ctx, models.EntityComparableRun, run.RunID, models.EventComparableSearch, map[string]any{
		"requestedBy": run.RequestedBy,
		"poolSize":    len(req.Pool),
		"topK":        ClampTopK(topK),
		"returned":    len(candidates),
	}); err != nil {
		return nil, err
	}
	e.stores.Comparables.Put(run)

	e.metrics.ObserveSearch(elapsed.Seconds())
	e.logger.Info("[engine] comparable search %s: pool %d → %d candidates in %v",
		run.RunID, len(req.Pool), len(candidates), elapsed)

	return &SearchResult{
		RunID:       run.RunID,
		ElapsedMs:   elapsed.Milliseconds(),
		Comparables: candidates,
	}, nil
}

// GetComparableRun returns a stored comparable run.
func (e *Engine) GetComparableRun(runID string) (*models.ComparableRun, error) {
	return e.stores.Comparables.Get(runID)
}

// OverrideRequest patches one candidate's adjustment.
type OverrideRequest struct {
	CandidateID string                  `json:"candidateId"`
	Patch       *models.AdjustmentPatch `json:"patch"`
	AppraiserID string                  `json:"appraiserId"`
	Reason      string                  `json:"reason"`
}

// OverrideResult reports the recomputed candidate.
type OverrideResult struct {
	AdjustedPrice     int64             `json:"adjustedPrice"`
	UpdatedAdjustment models.Adjustment `json:"updatedAdjustment"`
	AuditEventID      string            `json:"auditEventId"`
}

// Override merges the patch into the candidate's adjustment, recomputes the
// total and the adjusted price, replaces the run and appends one audit
// event. Nothing is stored if the audit append fails.
func (e *Engine) Override(ctx context.Context, runID string, req OverrideRequest) (*OverrideResult, error) {
	const op = "engine.Override"
	switch {
	case strings.TrimSpace(req.CandidateID) == "":
		return nil, apperrors.Validation(op, "candidateId is required")
	case req.Patch.IsEmpty():
		return nil, apperrors.Validation(op, "patch is required")
	case strings.TrimSpace(req.AppraiserID) == "":
		return nil, apperrors.Validation(op, "appraiserId is required")
	case strings.TrimSpace(req.Reason) == "":
		return nil, apperrors.Validation(op, "reason is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	run, err := e.stores.Comparables.Get(runID)
	if err != nil {
		return nil, err
	}
	idx := run.FindCandidate(req.CandidateID)
	if idx < 0 {
		return nil, apperrors.NotFound(op, "candidate %q not found in run %q", req.CandidateID, runID)
	}

	cand := run.Comparables[idx]
	previousTotal := cand.Adjustment.TotalPercent
	cand.Adjustment = MergeAdjustment(cand.Adjustment, req.Patch)
	cand.AdjustedPrice = AdjustedPrice(cand.BasePrice, cand.Adjustment.TotalPercent)
	cand.Overridden = true

	event, err := e.ledger.Record(ctx, models.EntityComparableRun, runID, models.EventAdjustmentOverride, map[string]any{
		"candidateId":   cand.CandidateID,
		"appraiserId":   req.AppraiserID,
		"reason":        req.Reason,
		"patch":         req.Patch.Fields(),
		"previousTotal": previousTotal,
		"totalPercent":  cand.Adjustment.TotalPercent,
		"adjustedPrice": cand.AdjustedPrice,
	})
	if err != nil {
		return nil, err
	}

	run.Comparables[idx] = cand
	e.stores.Comparables.Put(run)
	e.metrics.IncrementOverrides()
	e.logger.Info("[engine] override %s/%s by %s: total %.4f → %.4f",
		runID, cand.CandidateID, req.AppraiserID, previousTotal, cand.Adjustment.TotalPercent)

	return &OverrideResult{
		AdjustedPrice:     cand.AdjustedPrice,
		UpdatedAdjustment: cand.Adjustment,
		AuditEventID:      event.ID,
	}, nil
}

// ValueRequest asks for a valuation of a comparable run.
type ValueRequest struct {
	RunID    string `json:"runId"`
	Strategy string `json:"strategy,omitempty"`
}

// Value aggregates the run's candidates and audits the result.
func (e *Engine) Value(ctx context.Context, req ValueRequest) (*models.ValuationResult, error) {
	result, err := e.valuate(req.RunID, req.Strategy)
	if err != nil {
		return nil, err
	}
	if _, err := e.ledger.Record(ctx, models.EntityComparableRun, req.RunID, models.EventValuation, valuationPayload(result)); err != nil {
		return nil, err
	}
	e.metrics.IncrementValuations(result.Strategy)
	e.logger.Info("[engine] valuation %s (%s): mid %d, confidence %.2f",
		req.RunID, result.Strategy, result.Range.Mid, result.ConfidenceScore)
	return &result, nil
}

func (e *Engine) valuate(runID, strategy string) (models.ValuationResult, error) {
	if strings.TrimSpace(runID) == "" {
		return models.ValuationResult{}, apperrors.Validation("engine.Value", "runId is required")
	}
	if strategy == "" {
		strategy = e.strategy
	}
	if !ValidStrategy(strategy) {
		return models.ValuationResult{}, apperrors.Validation("engine.Value", "unknown strategy %q", strategy)
	}
	run, err := e.stores.Comparables.Get(runID)
	if err != nil {
		return models.ValuationResult{}, err
	}
	return e.aggregator.Aggregate(run.Comparables, strategy)
}

func valuationPayload(r models.ValuationResult) map[string]any {
	return map[string]any{
		"strategy":         r.Strategy,
		"low":              r.Range.Low,
		"mid":              r.Range.Mid,
		"high":             r.Range.High,
		"confidenceScore":  r.ConfidenceScore,
		"comparablesUsed":  r.ComparablesUsed,
		"rejectedOutliers": r.RejectedOutliers,
		"degenerate":       r.Degenerate,
	}
}

func actorOrDefault(actor string) string {
	if a := strings.TrimSpace(actor); a != "" {
		return a
	}
	return DefaultActor
}
