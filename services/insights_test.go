package services

import (
	"bytes"
	"strings"
	"testing"

	"property-valuation/models"
	"property-valuation/utils"
)

func sampleRun() *models.IngestionRun {
	return &models.IngestionRun{
		RunID: "run-1",
		Transactions: models.KindResult{
			Cleaned: []models.CleanedRecord{
				{ID: "transaction_1", City: "haifa", Price: 1000000, ConfidenceScore: 0.7},
				{ID: "transaction_2", City: "haifa", Price: 3000000, ConfidenceScore: 0.9},
			},
			Errors: []models.RecordError{{Index: 2, Reason: ReasonInvalidPrice}},
		},
		Listings: models.KindResult{
			Cleaned: []models.CleanedRecord{
				{ID: "listing_1", Price: 2000000, ConfidenceScore: 0.8},
			},
			Errors: []models.RecordError{{Index: 0, Reason: ReasonInvalidPrice}},
		},
		Summary: models.RunSummary{TotalInput: 6, Cleaned: 3, Duplicates: 1, Errors: 2},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleRun())

	if r.Transactions != 2 || r.Listings != 1 {
		t.Errorf("got %d transactions, %d listings; want 2, 1", r.Transactions, r.Listings)
	}
	if r.Duplicates != 1 || r.Errors != 2 {
		t.Errorf("got %d duplicates, %d errors; want 1, 2", r.Duplicates, r.Errors)
	}
	if r.ErrorsByReason[ReasonInvalidPrice] != 2 {
		t.Errorf("ErrorsByReason = %v", r.ErrorsByReason)
	}
}

func TestInsightPrices(t *testing.T) {
	r := NewInsightService(utils.NewDiscardLogger()).Generate(sampleRun())

	if r.AveragePrice != 2000000 {
		t.Errorf("AveragePrice = %v; want 2000000", r.AveragePrice)
	}
	if r.MinPrice != 1000000 || r.MaxPrice != 3000000 {
		t.Errorf("Min/Max = %v/%v", r.MinPrice, r.MaxPrice)
	}
	if r.MostExpensive == nil || r.MostExpensive.ID != "transaction_2" {
		t.Errorf("MostExpensive = %+v", r.MostExpensive)
	}
}

func TestInsightTopConfidence(t *testing.T) {
	r := NewInsightService(utils.NewDiscardLogger()).Generate(sampleRun())

	want := []string{"transaction_2", "listing_1", "transaction_1"}
	if len(r.TopConfidence) != len(want) {
		t.Fatalf("TopConfidence len = %d", len(r.TopConfidence))
	}
	for i, id := range want {
		if r.TopConfidence[i].ID != id {
			t.Errorf("TopConfidence[%d] = %s; want %s", i, r.TopConfidence[i].ID, id)
		}
	}
}

func TestInsightCityGrouping(t *testing.T) {
	r := NewInsightService(utils.NewDiscardLogger()).Generate(sampleRun())

	if r.RecordsByCity["haifa"] != 2 || r.RecordsByCity["unknown"] != 1 {
		t.Errorf("RecordsByCity = %v", r.RecordsByCity)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(&models.IngestionRun{RunID: "empty"})

	if r.MostExpensive != nil || r.AveragePrice != 0 || len(r.TopConfidence) != 0 {
		t.Errorf("expected empty insights, got %+v", r)
	}

	var buf bytes.Buffer
	svc.Print(&buf, r)
	if !strings.Contains(buf.String(), "No price data available") {
		t.Errorf("Print output missing empty-price notice:\n%s", buf.String())
	}
}

func TestPrintValuation(t *testing.T) {
	var buf bytes.Buffer
	NewInsightService(utils.NewDiscardLogger()).PrintValuation(&buf, "cmp-1",
		[]models.ComparableCandidate{{CandidateID: "c1", Similarity: 0.9, Weight: 0.8, AdjustedPrice: 1000000}},
		&models.ValuationResult{
			Range:            models.ValueRange{Low: 940000, Mid: 1000000, High: 1060000},
			Strategy:         models.StrategyMean,
			RejectedOutliers: []string{"c9"},
			Rationale:        []string{"Strategy: mean"},
		})

	out := buf.String()
	for _, want := range []string{"VALUATION cmp-1", "Estimate (mean)", "1000000", "Outliers   : c9", "Strategy: mean"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
