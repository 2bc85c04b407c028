package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"property-valuation/apperrors"
	"property-valuation/models"
)

// Report issue thresholds.
const (
	MinReportComparables = 3
	MinReportConfidence  = 40.0
)

// Report issues. A report with any issue cannot be finalized.
const (
	IssueFewComparables = "fewer than 3 comparables used"
	IssueLowConfidence  = "confidence below 40"
	IssueDegenerate     = "degenerate valuation"
)

// ReportIssues lists what blocks a valuation from being finalized.
func ReportIssues(v models.ValuationResult) []string {
	issues := []string{}
	if v.Degenerate {
		issues = append(issues, IssueDegenerate)
	}
	if v.ComparablesUsed < MinReportComparables {
		issues = append(issues, IssueFewComparables)
	}
	if v.ConfidenceScore < MinReportConfidence {
		issues = append(issues, IssueLowConfidence)
	}
	return issues
}

// CreateReportRequest asks for a draft report over a comparable run.
type CreateReportRequest struct {
	RunID     string `json:"runId"`
	Strategy  string `json:"strategy,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
}

// CreateReport values the run and stores a draft report with its issues.
func (e *Engine) CreateReport(ctx context.Context, req CreateReportRequest) (*models.Report, error) {
	valuation, err := e.valuate(req.RunID, req.Strategy)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		ID:        uuid.NewString(),
		RunID:     req.RunID,
		Strategy:  valuation.Strategy,
		Valuation: valuation,
		Issues:    ReportIssues(valuation),
		Status:    models.ReportDraft,
		CreatedBy: actorOrDefault(req.CreatedBy),
		CreatedAt: e.now().UTC(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.ledger.Record(ctx, models.EntityReport, report.ID, models.EventReportCreated, map[string]any{
		"runId":     report.RunID,
		"strategy":  report.Strategy,
		"createdBy": report.CreatedBy,
		"issues":    report.Issues,
		"mid":       valuation.Range.Mid,
	}); err != nil {
		return nil, err
	}
	e.stores.Reports.Put(report)
	e.logger.Info("[engine] report %s drafted for run %s with %d issue(s)", report.ID, report.RunID, len(report.Issues))
	return report, nil
}

// GetReport returns a stored report.
func (e *Engine) GetReport(reportID string) (*models.Report, error) {
	return e.stores.Reports.Get(reportID)
}

// FinalizeReport marks a draft final. It fails with a conflict when the
// report is already final or still has issues.
func (e *Engine) FinalizeReport(ctx context.Context, reportID, actor string) (*models.Report, error) {
	const op = "engine.FinalizeReport"
	if strings.TrimSpace(actor) == "" {
		return nil, apperrors.Validation(op, "actor is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	report, err := e.stores.Reports.Get(reportID)
	if err != nil {
		return nil, err
	}
	if report.Status == models.ReportFinal {
		return nil, apperrors.Conflict(op, "report %q is already final", reportID)
	}
	if len(report.Issues) > 0 {
		return nil, apperrors.Conflict(op, "report %q has unresolved issues: %s", reportID, strings.Join(report.Issues, "; "))
	}

	now := e.now().UTC()
	report.Status = models.ReportFinal
	report.FinalizedAt = &now
	report.FinalizedBy = actor

	if _, err := e.ledger.Record(ctx, models.EntityReport, report.ID, models.EventReportFinalized, map[string]any{
		"runId":       report.RunID,
		"finalizedBy": actor,
	}); err != nil {
		return nil, err
	}
	e.stores.Reports.Put(report)
	e.logger.Info("[engine] report %s finalized by %s", report.ID, actor)
	return report, nil
}
