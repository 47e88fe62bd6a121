package feetype

import (
	"context"
	"sort"
	"sync"

	"wardbook/internal/ledger/models"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded fee type store for tests and single-process
// deployments.
type InMemory struct {
	mu       sync.RWMutex
	feeTypes map[id.FeeTypeID]models.FeeType
}

func NewInMemory() *InMemory {
	return &InMemory{feeTypes: make(map[id.FeeTypeID]models.FeeType)}
}

func (s *InMemory) Create(_ context.Context, feeType *models.FeeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeTypes[feeType.ID] = *feeType
	return nil
}

func (s *InMemory) FindByID(_ context.Context, feeTypeID id.FeeTypeID) (*models.FeeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feeType, ok := s.feeTypes[feeTypeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := feeType
	return &copied, nil
}

func (s *InMemory) Update(_ context.Context, feeType *models.FeeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feeTypes[feeType.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.feeTypes[feeType.ID] = *feeType
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.FeeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feeTypes := make([]*models.FeeType, 0, len(s.feeTypes))
	for _, feeType := range s.feeTypes {
		copied := feeType
		feeTypes = append(feeTypes, &copied)
	}
	sort.Slice(feeTypes, func(i, j int) bool {
		return feeTypes[i].CreatedAt.Before(feeTypes[j].CreatedAt)
	})
	return feeTypes, nil
}
