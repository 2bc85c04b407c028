package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"property-valuation/models"
	"property-valuation/utils"
)

const topConfidenceCount = 5

// InsightService summarises ingestion runs and valuations for the terminal.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(run *models.IngestionRun) *models.IngestionInsights {
	report := &models.IngestionInsights{
		RunID:          run.RunID,
		TotalInput:     run.Summary.TotalInput,
		Transactions:   len(run.Transactions.Cleaned),
		Listings:       len(run.Listings.Cleaned),
		Duplicates:     run.Summary.Duplicates,
		Errors:         run.Summary.Errors,
		RecordsByCity:  make(map[string]int),
		ErrorsByReason: make(map[string]int),
	}

	var cleaned []models.CleanedRecord
	cleaned = append(cleaned, run.Transactions.Cleaned...)
	cleaned = append(cleaned, run.Listings.Cleaned...)
	for _, e := range append(append([]models.RecordError{}, run.Transactions.Errors...), run.Listings.Errors...) {
		report.ErrorsByReason[e.Reason]++
	}

	if len(cleaned) == 0 {
		return report
	}

	report.MinPrice = cleaned[0].Price
	report.MaxPrice = cleaned[0].Price
	report.MostExpensive = &cleaned[0]
	var total float64
	for i := range cleaned {
		r := &cleaned[i]
		total += r.Price
		if r.Price < report.MinPrice {
			report.MinPrice = r.Price
		}
		if r.Price > report.MaxPrice {
			report.MaxPrice = r.Price
			report.MostExpensive = r
		}
		city := r.City
		if city == "" {
			city = "unknown"
		}
		report.RecordsByCity[city]++
	}
	report.AveragePrice = round2(total / float64(len(cleaned)))

	// Top by confidence
	ranked := append([]models.CleanedRecord(nil), cleaned...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ConfidenceScore > ranked[j].ConfidenceScore
	})
	if len(ranked) > topConfidenceCount {
		ranked = ranked[:topConfidenceCount]
	}
	report.TopConfidence = ranked

	return report
}

func (s *InsightService) Print(w io.Writer, r *models.IngestionInsights) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  INGESTION RUN %s\033[0m\n", r.RunID)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Records received    : \033[1m%d\033[0m\n", r.TotalInput)
	fmt.Fprintf(w, "  Clean transactions  : \033[1m%d\033[0m\n", r.Transactions)
	fmt.Fprintf(w, "  Clean listings      : \033[1m%d\033[0m\n", r.Listings)
	fmt.Fprintf(w, "  Duplicates          : \033[1m%d\033[0m\n", r.Duplicates)
	fmt.Fprintf(w, "  Rejected            : \033[1m%d\033[0m\n", r.Errors)
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m%.0f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m%.0f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m%.0f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Record\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Address.Normalized, 50))
		fmt.Fprintf(w, "  Source : %s\n", r.MostExpensive.Source)
		fmt.Fprintf(w, "  Price  : \033[1;31m%.0f\033[0m\n", r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Highest Confidence Records\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopConfidence) == 0 {
		fmt.Fprintf(w, "  No clean records\n")
	} else {
		for i, rec := range r.TopConfidence {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%.2f\033[0m\n",
				i+1, truncate(rec.Address.Normalized, 38), rec.ConfidenceScore)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Records by City\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	printCounts(w, r.RecordsByCity, "  No city data\n")

	if len(r.ErrorsByReason) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "\033[1;33m  Rejections by Reason\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		printCounts(w, r.ErrorsByReason, "")
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// PrintValuation renders a valuation with its comparables.
func (s *InsightService) PrintValuation(w io.Writer, runID string, cands []models.ComparableCandidate, v *models.ValuationResult) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  VALUATION %s\033[0m\n", runID)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Comparables\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(cands) == 0 {
		fmt.Fprintf(w, "  No comparables\n")
	}
	for i, c := range cands {
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-20s sim %.2f  w %.2f  adj %+.1f%%  %d\n",
			i+1, truncate(c.CandidateID, 20), c.Similarity, c.Weight, c.Adjustment.TotalPercent*100, c.AdjustedPrice)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Estimate (%s)\033[0m\n", v.Strategy)
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Low  : %d\n", v.Range.Low)
	fmt.Fprintf(w, "  Mid  : \033[1;32m%d\033[0m\n", v.Range.Mid)
	fmt.Fprintf(w, "  High : %d\n", v.Range.High)
	fmt.Fprintf(w, "  Confidence : %.2f / 100\n", v.ConfidenceScore)
	if len(v.RejectedOutliers) > 0 {
		fmt.Fprintf(w, "  Outliers   : %s\n", strings.Join(v.RejectedOutliers, ", "))
	}
	for _, line := range v.Rationale {
		fmt.Fprintf(w, "  • %s\n", line)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(w io.Writer, counts map[string]int, empty string) {
	if len(counts) == 0 {
		fmt.Fprint(w, empty)
		return
	}
	type keyCount struct {
		key   string
		count int
	}
	var kcs []keyCount
	for k, c := range counts {
		kcs = append(kcs, keyCount{k, c})
	}
	sort.Slice(kcs, func(i, j int) bool {
		if kcs[i].count == kcs[j].count {
			return kcs[i].key < kcs[j].key
		}
		return kcs[i].count > kcs[j].count
	})
	for _, kc := range kcs {
		bar := strings.Repeat("█", min(kc.count, 40))
		fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(kc.key, 28), bar, kc.count)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
