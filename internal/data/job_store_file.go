// Package data provides the persistence adapters: job definition stores and
// the run history repository.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

// FileJobStore keeps every job definition in one JSON document keyed by job
// number, the layout field engineers already carry around on USB sticks.
// Saves rewrite the document atomically via a temp file.
type FileJobStore struct {
	path string
	mu   sync.Mutex
}

// NewFileJobStore creates a store backed by the JSON document at path. The
// file is created lazily on first save.
func NewFileJobStore(path string) *FileJobStore {
	return &FileJobStore{path: path}
}

// Load returns the definition for jobID, or model.ErrJobNotFound.
func (s *FileJobStore) Load(_ context.Context, jobID string) (*model.JobDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.read()
	if err != nil {
		return nil, err
	}
	job, ok := jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, model.ErrJobNotFound)
	}
	return job, nil
}

// Save writes or replaces the definition for job.JobID.
func (s *FileJobStore) Save(_ context.Context, job *model.JobDefinition) error {
	if err := job.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.read()
	if err != nil {
		return err
	}
	jobs[job.JobID] = job
	return s.write(jobs)
}

// Delete removes the definition for jobID. Deleting an unknown job returns
// model.ErrJobNotFound.
func (s *FileJobStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := jobs[jobID]; !ok {
		return fmt.Errorf("job %s: %w", jobID, model.ErrJobNotFound)
	}
	delete(jobs, jobID)
	return s.write(jobs)
}

// List returns every stored definition ordered by job ID.
func (s *FileJobStore) List(_ context.Context) ([]*model.JobDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]*model.JobDefinition, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out, nil
}

func (s *FileJobStore) read() (map[string]*model.JobDefinition, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]*model.JobDefinition), nil
		}
		return nil, fmt.Errorf("read job store %s: %w", s.path, err)
	}

	jobs := make(map[string]*model.JobDefinition)
	if len(data) == 0 {
		return jobs, nil
	}
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("decode job store %s: %w", s.path, err)
	}
	// The key is authoritative; keep embedded IDs consistent with it.
	for id, job := range jobs {
		if job.JobID == "" {
			job.JobID = id
		}
	}
	return jobs, nil
}

func (s *FileJobStore) write(jobs map[string]*model.JobDefinition) error {
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode job store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".jobstore-*")
	if err != nil {
		return fmt.Errorf("stage job store: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write job store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("flush job store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace job store %s: %w", s.path, err)
	}
	return nil
}

var _ core.JobConfigStore = (*FileJobStore)(nil)
