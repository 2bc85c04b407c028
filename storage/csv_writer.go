package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"property-valuation/models"
)

var cleanedHeader = []string{
	"id", "kind", "source", "source_record_id", "normalized_address", "city",
	"price", "event_date", "area", "floor", "rooms", "completeness", "confidence", "dedupe_key",
}

// CSVWriter writes cleaned records to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(cleanedHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteCleaned appends one row per cleaned record.
func (c *CSVWriter) WriteCleaned(records []models.CleanedRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		row := []string{
			r.ID,
			r.Kind,
			r.Source,
			r.SourceRecordID,
			r.Address.Normalized,
			r.City,
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			r.EventDate,
			optionalFloat(r.Area),
			optionalFloat(r.Floor),
			optionalFloat(r.Rooms),
			strconv.FormatFloat(r.CompletenessScore, 'f', 2, 64),
			strconv.FormatFloat(r.ConfidenceScore, 'f', 4, 64),
			r.DedupeKey,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func optionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
