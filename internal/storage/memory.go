package storage

import (
	"context"
	"sort"
	"sync"

	"phylogen/internal/model"
)

type MemoryStore struct {
	mu        sync.RWMutex
	runs      map[string]model.RunRecord
	snapshots map[string][]model.GenerationSnapshot
	best      map[string]model.BestIndividualRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.snapshots = make(map[string][]model.GenerationSnapshot)
	s.best = make(map[string]model.BestIndividualRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, record model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[record.ID] = record
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[id]
	return record, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.RunRecord, 0, len(s.runs))
	for _, record := range s.runs {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAtUTC == records[j].CreatedAtUTC {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAtUTC < records[j].CreatedAtUTC
	})
	return records, nil
}

func (s *MemoryStore) SaveSnapshots(_ context.Context, runID string, snapshots []model.GenerationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationSnapshot, len(snapshots))
	copy(copied, snapshots)
	s.snapshots[runID] = copied
	return nil
}

func (s *MemoryStore) GetSnapshots(_ context.Context, runID string) ([]model.GenerationSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots, ok := s.snapshots[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationSnapshot, len(snapshots))
	copy(copied, snapshots)
	return copied, true, nil
}

func (s *MemoryStore) SaveBestIndividual(_ context.Context, record model.BestIndividualRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.best[record.RunID] = record
	return nil
}

func (s *MemoryStore) GetBestIndividual(_ context.Context, runID string) (model.BestIndividualRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.best[runID]
	return record, ok, nil
}
