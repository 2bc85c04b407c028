package models

// IngestionInsights holds summary analytics over the cleaned records of a run.
type IngestionInsights struct {
	RunID          string
	TotalInput     int
	Transactions   int
	Listings       int
	Duplicates     int
	Errors         int
	AveragePrice   float64
	MinPrice       float64
	MaxPrice       float64
	MostExpensive  *CleanedRecord
	TopConfidence  []CleanedRecord
	RecordsByCity  map[string]int
	ErrorsByReason map[string]int
}
