package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

// Hand-written test doubles for the engine's ports.

// stubSession is an in-memory RobotSession serving a fixed file set, with
// injectable failures per operation.
type stubSession struct {
	files map[string][]byte

	selectErr   error
	listErr     error
	sizeErr     map[string]error
	retrieveErr map[string]error
	// sizeOverride reports a wrong (or unknown, when negative) size for a
	// file without changing its content.
	sizeOverride map[string]int64

	mu       sync.Mutex
	closed   bool
	selected model.BackupType
}

func newStubSession(files map[string][]byte) *stubSession {
	return &stubSession{files: files}
}

func (s *stubSession) SelectBackup(backupType model.BackupType) error {
	if s.selectErr != nil {
		return s.selectErr
	}
	s.mu.Lock()
	s.selected = backupType
	s.mu.Unlock()
	return nil
}

func (s *stubSession) ListFiles() ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *stubSession) FileSize(name string) (int64, error) {
	if err := s.sizeErr[name]; err != nil {
		return 0, err
	}
	if size, ok := s.sizeOverride[name]; ok {
		return size, nil
	}
	content, ok := s.files[name]
	if !ok {
		return 0, model.ErrConnectionTimeout
	}
	return int64(len(content)), nil
}

func (s *stubSession) Retrieve(name string) (io.ReadCloser, error) {
	if err := s.retrieveErr[name]; err != nil {
		return nil, err
	}
	content, ok := s.files[name]
	if !ok {
		return nil, model.ErrConnectionTimeout
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *stubSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// stubDialer returns canned sessions or errors per address. DialFunc, when
// set, wins over the canned maps.
type stubDialer struct {
	DialFunc func(ctx context.Context, address string) (core.RobotSession, error)

	sessions map[string]*stubSession
	dialErr  map[string]error

	mu    sync.Mutex
	dials map[string]int
}

func (d *stubDialer) Dial(ctx context.Context, address string) (core.RobotSession, error) {
	d.mu.Lock()
	if d.dials == nil {
		d.dials = make(map[string]int)
	}
	d.dials[address]++
	d.mu.Unlock()

	if d.DialFunc != nil {
		return d.DialFunc(ctx, address)
	}
	if err := d.dialErr[address]; err != nil {
		return nil, err
	}
	if session, ok := d.sessions[address]; ok {
		return session, nil
	}
	return nil, model.ErrConnectionTimeout
}

func (d *stubDialer) dialCount(address string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[address]
}

// recordingReporter captures events concurrently, in arrival order.
type recordingReporter struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

func (r *recordingReporter) Report(event model.ProgressEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recordingReporter) kinds() []model.ProgressKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]model.ProgressKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (r *recordingReporter) kindsFor(address string) []model.ProgressKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []model.ProgressKind
	for _, e := range r.events {
		if e.Address == address {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

// stubHistory records RecordRun calls.
type stubHistory struct {
	mu      sync.Mutex
	records []core.RecordRunParams
	err     error
}

func (h *stubHistory) RecordRun(_ context.Context, params core.RecordRunParams) error {
	if h.err != nil {
		return h.err
	}
	h.mu.Lock()
	h.records = append(h.records, params)
	h.mu.Unlock()
	return nil
}

func (h *stubHistory) ListRuns(context.Context, string, int) ([]*model.JobResult, error) {
	return nil, nil
}

func (h *stubHistory) Close() error { return nil }
