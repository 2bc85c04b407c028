package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-valuation/apperrors"
	"property-valuation/models"
)

func TestFileRunStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "runs.jsonl")
	s, err := NewFileRunStore(path)
	require.NoError(t, err)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, sampleRun("r1", base)))
	require.NoError(t, s.Save(ctx, sampleRun("r2", base.Add(time.Minute))))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RunID)
	assert.True(t, got.CreatedAt.Equal(base))

	_, err = s.Get(ctx, "r3")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFileRunStoreRepeatedSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileRunStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)

	run := sampleRun("r1", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, run))
	run.CreatedBy = "second"
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.CreatedBy)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].CreatedBy)
}

func TestFileRunStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	s, err := NewFileRunStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleRun("r1", time.Now().UTC())))

	reopened, err := NewFileRunStore(path)
	require.NoError(t, err)
	list, err := reopened.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].RunID)
}

func TestFileRunStoreEmptyList(t *testing.T) {
	s, err := NewFileRunStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	list, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileRunStoreCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0644))
	s, err := NewFileRunStore(path)
	require.NoError(t, err)

	_, err = s.List(context.Background(), 10)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestCSVWriterWritesCleanedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cleaned.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	area := 80.0
	require.NoError(t, w.WriteCleaned([]models.CleanedRecord{{
		ID:                "transaction_1",
		Kind:              models.KindTransaction,
		Source:            "tax authority",
		Address:           models.NormalizedAddress{Normalized: "tel aviv-yafo | dizengoff | 50"},
		City:              "tel aviv-yafo",
		Price:             2500000,
		EventDate:         "2025-01-01",
		Area:              &area,
		CompletenessScore: 0.6,
		ConfidenceScore:   0.8123,
		DedupeKey:         "k",
	}}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, cleanedHeader, rows[0])
	assert.Equal(t, "2500000", rows[1][6])
	assert.Equal(t, "80", rows[1][8])
	assert.Equal(t, "", rows[1][9])
	assert.Equal(t, "0.8123", rows[1][12])
}
