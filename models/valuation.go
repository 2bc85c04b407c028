package models

import "time"

// Valuation strategies.
const (
	StrategyMean         = "mean"
	StrategyWeightedMean = "weighted-mean"
	StrategyHedonic      = "hedonic"
)

// ValueRange is the low/mid/high estimate. Low <= Mid <= High.
type ValueRange struct {
	Low  int64 `json:"low"`
	Mid  int64 `json:"mid"`
	High int64 `json:"high"`
}

// ValuationResult is derived fresh from a ComparableRun on every request.
type ValuationResult struct {
	Range            ValueRange `json:"range"`
	ConfidenceScore  float64    `json:"confidenceScore"`
	ComparablesUsed  int        `json:"comparablesUsed"`
	RejectedOutliers []string   `json:"rejectedOutliers"`
	Rationale        []string   `json:"rationale"`
	Strategy         string     `json:"strategy"`
	Degenerate       bool       `json:"degenerate,omitempty"`
}

// Report statuses.
const (
	ReportDraft = "draft"
	ReportFinal = "final"
)

// Report is a stored valuation awaiting sign-off.
type Report struct {
	ID          string          `json:"id"`
	RunID       string          `json:"runId"`
	Strategy    string          `json:"strategy"`
	Valuation   ValuationResult `json:"valuation"`
	Issues      []string        `json:"issues"`
	Status      string          `json:"status"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	FinalizedAt *time.Time      `json:"finalizedAt,omitempty"`
	FinalizedBy string          `json:"finalizedBy,omitempty"`
}
