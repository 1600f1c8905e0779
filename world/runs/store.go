package runs

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

var (
	ErrRunNotFound      = fmt.Errorf("run %w", service.ErrNotFound)
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrInvalidRun       = errors.New("invalid run")
)

// Store holds finished runs in memory, optionally backed by an Archive
type Store struct {
	runs    map[string]*service.RunReport
	limit   int
	archive Archive
	mu      sync.RWMutex
}

// NewStore creates an unbounded run store
func NewStore() *Store {
	return NewStoreWithLimit(0)
}

// NewStoreWithLimit creates a store that keeps at most limit runs, evicting
// the oldest first. A limit of zero or less means unbounded.
func NewStoreWithLimit(limit int) *Store {
	return &Store{
		runs:  make(map[string]*service.RunReport),
		limit: limit,
	}
}

// NewStoreWithArchive creates a store that also writes every run to archive
// and falls back to it for runs no longer held in memory
func NewStoreWithArchive(limit int, archive Archive) *Store {
	s := NewStoreWithLimit(limit)
	s.archive = archive
	return s
}

// Add records a run. An archive failure is returned after the run is
// already held in memory.
func (s *Store) Add(report *service.RunReport) error {
	if report == nil || report.ID == "" {
		return ErrInvalidRun
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.ToLower(report.ID)
	if _, exists := s.runs[id]; exists {
		return ErrRunAlreadyExists
	}
	s.put(id, report)

	if s.archive != nil {
		if err := s.archive.Save(report); err != nil {
			return fmt.Errorf("failed to archive run: %w", err)
		}
	}
	return nil
}

// put stores a run and enforces the limit; caller holds the lock
func (s *Store) put(id string, report *service.RunReport) {
	s.runs[id] = report
	if s.limit > 0 {
		for len(s.runs) > s.limit {
			s.evictOldest()
		}
	}
}

// Get retrieves a run by ID (case-insensitive), loading it from the
// archive when it is not in memory
func (s *Store) Get(id string) (*service.RunReport, error) {
	lowerID := strings.ToLower(id)

	s.mu.RLock()
	report, exists := s.runs[lowerID]
	s.mu.RUnlock()
	if exists {
		return report, nil
	}

	if s.archive == nil || !s.archive.Exists(lowerID) {
		return nil, ErrRunNotFound
	}
	report, err := s.archive.Load(lowerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.runs[lowerID]; ok {
		return existing, nil
	}
	s.put(lowerID, report)
	return report, nil
}

// List returns all stored runs in no particular order. With an archive,
// archived runs no longer held in memory are included, so List agrees with Get.
func (s *Store) List() []*service.RunReport {
	s.mu.RLock()
	result := make([]*service.RunReport, 0, len(s.runs))
	held := make(map[string]bool, len(s.runs))
	for id, report := range s.runs {
		result = append(result, report)
		held[id] = true
	}
	s.mu.RUnlock()

	if s.archive == nil {
		return result
	}
	ids, err := s.archive.ListAll()
	if err != nil {
		return result
	}
	for _, id := range ids {
		if held[strings.ToLower(id)] {
			continue
		}
		if report, err := s.archive.Load(id); err == nil {
			result = append(result, report)
		}
	}
	return result
}

// Delete removes a run from memory and from the archive
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowerID := strings.ToLower(id)
	_, inMemory := s.runs[lowerID]
	delete(s.runs, lowerID)

	if s.archive != nil && s.archive.Exists(lowerID) {
		if err := s.archive.Delete(lowerID); err != nil {
			return fmt.Errorf("failed to delete archived run: %w", err)
		}
		return nil
	}
	if !inMemory {
		return ErrRunNotFound
	}
	return nil
}

// LoadArchived reads every archived run into memory and returns how many were loaded.
// Runs that fail to load are skipped.
func (s *Store) LoadArchived() (int, error) {
	if s.archive == nil {
		return 0, nil
	}

	ids, err := s.archive.ListAll()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		report, err := s.archive.Load(id)
		if err != nil {
			continue
		}
		s.put(strings.ToLower(report.ID), report)
		loaded++
	}
	return loaded, nil
}

// CleanupExpired removes runs that finished before now minus maxAge from
// memory; archived copies are kept
func (s *Store) CleanupExpired(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, report := range s.runs {
		if report.FinishedAt.Before(cutoff) {
			delete(s.runs, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of runs held in memory
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// evictOldest drops the run that finished first; caller holds the lock
func (s *Store) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, report := range s.runs {
		if oldestID == "" || report.FinishedAt.Before(oldest) {
			oldestID = id
			oldest = report.FinishedAt
		}
	}
	if oldestID != "" {
		delete(s.runs, oldestID)
	}
}
