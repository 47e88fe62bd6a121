package household

import (
	"context"
	"strings"
	"sync"

	"wardbook/internal/household/models"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded household store for tests and single-process
// deployments.
type InMemory struct {
	mu         sync.RWMutex
	households map[id.HouseholdID]models.Household
	byCode     map[string]id.HouseholdID
}

func NewInMemory() *InMemory {
	return &InMemory{
		households: make(map[id.HouseholdID]models.Household),
		byCode:     make(map[string]id.HouseholdID),
	}
}

func (s *InMemory) Create(_ context.Context, household *models.Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := codeKey(household.Code)
	if _, exists := s.byCode[key]; exists {
		return sentinel.ErrConflict
	}
	s.households[household.ID] = *household
	s.byCode[key] = household.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, householdID id.HouseholdID) (*models.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	household, ok := s.households[householdID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := household
	return &copied, nil
}

func (s *InMemory) FindByCode(_ context.Context, code string) (*models.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	householdID, ok := s.byCode[codeKey(code)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	household := s.households[householdID]
	copied := household
	return &copied, nil
}

func (s *InMemory) Update(_ context.Context, household *models.Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.households[household.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.households[household.ID] = *household
	return nil
}

// codeKey normalizes household codes for case-insensitive uniqueness.
func codeKey(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
