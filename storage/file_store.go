package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"property-valuation/apperrors"
	"property-valuation/models"
)

// maxLineBytes bounds a single stored run.
const maxLineBytes = 64 << 20

// FileRunStore appends every saved run as one JSON line. The file is never
// rewritten; on read the last line for a run id wins, which makes repeated
// saves an idempotent overwrite.
type FileRunStore struct {
	mu   sync.Mutex
	path string
}

// NewFileRunStore creates the parent directory of path if needed.
func NewFileRunStore(path string) (*FileRunStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("file store: create dir: %w", err)
	}
	return &FileRunStore{path: path}, nil
}

func (s *FileRunStore) Save(_ context.Context, run *models.IngestionRun) error {
	line, err := json.Marshal(run)
	if err != nil {
		return apperrors.Storage("file.Save", fmt.Errorf("encode run %s: %w", run.RunID, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return apperrors.Storage("file.Save", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return apperrors.Storage("file.Save", err)
	}
	if err := f.Sync(); err != nil {
		return apperrors.Storage("file.Save", err)
	}
	return nil
}

func (s *FileRunStore) Get(_ context.Context, runID string) (*models.IngestionRun, error) {
	runs, _, err := s.readAll()
	if err != nil {
		return nil, err
	}
	run, ok := runs[runID]
	if !ok {
		return nil, apperrors.NotFound("file.Get", "ingestion run %q not found", runID)
	}
	return run, nil
}

func (s *FileRunStore) List(_ context.Context, limit int) ([]models.IngestionRunSummary, error) {
	runs, order, err := s.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]models.IngestionRunSummary, 0, len(order))
	for _, id := range order {
		out = append(out, runs[id].SummaryView())
	}
	return newestFirst(out, limit), nil
}

func (s *FileRunStore) Close() error { return nil }

// readAll loads the latest version of every run and the order in which ids
// first appeared.
func (s *FileRunStore) readAll() (map[string]*models.IngestionRun, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make(map[string]*models.IngestionRun)
	var order []string

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return runs, order, nil
	}
	if err != nil {
		return nil, nil, apperrors.Storage("file.read", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var run models.IngestionRun
		if err := json.Unmarshal(scanner.Bytes(), &run); err != nil {
			return nil, nil, apperrors.Storage("file.read", fmt.Errorf("line %d: %w", lineNo, err))
		}
		if _, seen := runs[run.RunID]; !seen {
			order = append(order, run.RunID)
		}
		runs[run.RunID] = &run
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, apperrors.Storage("file.read", err)
	}
	return runs, order, nil
}
