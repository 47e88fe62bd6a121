package feerecord

import (
	"context"
	"sort"
	"sync"

	"wardbook/internal/ledger/models"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded fee record store for tests and single-process
// deployments.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.FeeRecordID]models.FeeRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.FeeRecordID]models.FeeRecord)}
}

func (s *InMemory) Create(_ context.Context, record *models.FeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = *record
	return nil
}

func (s *InMemory) FindByID(_ context.Context, recordID id.FeeRecordID) (*models.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := record
	return &copied, nil
}

func (s *InMemory) Update(_ context.Context, record *models.FeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.ID] = *record
	return nil
}

func (s *InMemory) ListByPair(_ context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID) ([]models.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.FeeRecord
	for _, record := range s.records {
		if record.FeeTypeID == feeTypeID && record.HouseholdID == householdID {
			matched = append(matched, record)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}
