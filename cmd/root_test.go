package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-valuation/config"
	"property-valuation/utils"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := config.FromEnv()
	cfg.StoreBackend = config.BackendMemory

	root := RootCommand(cfg, utils.NewDiscardLogger())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIngestCommandWritesCSV(t *testing.T) {
	input := writeFile(t, "records.json", `{
		"transactions": [
			{"source": "Tax Authority", "sourceRecordId": "t1", "address": "Herzl 12 Haifa", "price": 1500000, "transactionDate": "2025-01-01"},
			{"source": "Tax Authority", "sourceRecordId": "t2", "address": "Herzl 12 Haifa", "price": 1500000, "transactionDate": "2025-01-01"},
			"not a record"
		]
	}`)
	csvPath := filepath.Join(t.TempDir(), "out", "cleaned.csv")

	out, err := execute(t, "ingest", input, "--csv", csvPath, "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "INGESTION")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	assert.Len(t, lines, 2, "header plus one cleaned row")
}

func TestIngestCommandMissingFile(t *testing.T) {
	_, err := execute(t, "ingest", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValueCommand(t *testing.T) {
	input := writeFile(t, "search.json", `{
		"subject": {"area": 100, "floor": 3, "buildingYear": 2000, "conditionScore": 7, "propertyType": "apartment"},
		"comparablesPool": [
			{"id": "x", "area": 100, "floor": 3, "buildingYear": 2000, "conditionScore": 7, "propertyType": "apartment", "price": 1000000},
			{"id": "y", "area": 100, "floor": 3, "buildingYear": 2000, "conditionScore": 7, "propertyType": "apartment", "price": 1000000}
		]
	}`)

	out, err := execute(t, "value", input, "--strategy", "mean")
	require.NoError(t, err)
	assert.Contains(t, out, "1000000")
}

func TestValueCommandRejectsUnknownStrategy(t *testing.T) {
	input := writeFile(t, "search.json", `{"subject": {}, "comparablesPool": []}`)
	_, err := execute(t, "value", input, "--strategy", "median")
	assert.Error(t, err)
}
