package resident

import (
	"context"
	"sort"
	"sync"

	"wardbook/internal/household/models"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded resident store for tests and single-process
// deployments.
type InMemory struct {
	mu        sync.RWMutex
	residents map[id.ResidentID]models.Resident
}

func NewInMemory() *InMemory {
	return &InMemory{residents: make(map[id.ResidentID]models.Resident)}
}

func (s *InMemory) Create(_ context.Context, resident *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resident.NationalID != "" {
		for _, existing := range s.residents {
			if existing.NationalID == resident.NationalID {
				return sentinel.ErrConflict
			}
		}
	}
	s.residents[resident.ID] = *resident
	return nil
}

func (s *InMemory) FindByID(_ context.Context, residentID id.ResidentID) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resident, ok := s.residents[residentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := resident
	return &copied, nil
}

func (s *InMemory) FindByNationalID(_ context.Context, nationalID string) (*models.Resident, error) {
	if nationalID == "" {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, resident := range s.residents {
		if resident.NationalID == nationalID {
			copied := resident
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, resident *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residents[resident.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.residents[resident.ID] = *resident
	return nil
}

func (s *InMemory) ListByHousehold(_ context.Context, householdID id.HouseholdID) ([]*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []*models.Resident
	for _, resident := range s.residents {
		if resident.HouseholdID != nil && *resident.HouseholdID == householdID {
			copied := resident
			members = append(members, &copied)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
	return members, nil
}

func (s *InMemory) CountActiveMembers(_ context.Context, householdID id.HouseholdID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, resident := range s.residents {
		if resident.HouseholdID != nil && *resident.HouseholdID == householdID && resident.Status.CountsTowardBilling() {
			count++
		}
	}
	return count, nil
}
