package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-valuation/config"
	"property-valuation/services"
	"property-valuation/storage"
	"property-valuation/utils"
)

func TestNewMemoryBackend(t *testing.T) {
	cfg := config.FromEnv()
	cfg.StoreBackend = config.BackendMemory

	a, err := New(context.Background(), cfg, utils.NewDiscardLogger())
	require.NoError(t, err)
	defer a.Close()

	run, err := a.Engine.Ingest(context.Background(), services.IngestRequest{Transactions: []any{}})
	require.NoError(t, err)

	got, err := a.Engine.GetRun(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
}

func TestNewFileBackendPersistsAcrossInstances(t *testing.T) {
	cfg := config.FromEnv()
	cfg.StoreBackend = config.BackendFile
	cfg.RunStorePath = filepath.Join(t.TempDir(), "runs", "ingestion_runs.jsonl")

	first, err := New(context.Background(), cfg, utils.NewDiscardLogger())
	require.NoError(t, err)
	run, err := first.Engine.Ingest(context.Background(), services.IngestRequest{Listings: []any{}})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(context.Background(), cfg, utils.NewDiscardLogger())
	require.NoError(t, err)
	defer second.Close()

	_, isFile := second.runs.(*storage.FileRunStore)
	assert.True(t, isFile)

	got, err := second.Engine.GetRun(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := config.FromEnv()
	cfg.StoreBackend = "mongo"

	_, err := New(context.Background(), cfg, utils.NewDiscardLogger())
	assert.ErrorContains(t, err, "unknown store backend")
}
