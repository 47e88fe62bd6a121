package request

import (
	"context"
	"sort"
	"sync"

	"wardbook/internal/lifecycle/models"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded change request store for tests and
// single-process deployments.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.ChangeRequestID]models.ChangeRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.ChangeRequestID]models.ChangeRequest)}
}

func (s *InMemory) Create(_ context.Context, request *models.ChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[request.ID]; ok {
		return sentinel.ErrConflict
	}
	s.requests[request.ID] = *request
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := request
	return &copied, nil
}

func (s *InMemory) List(_ context.Context, status *models.ApprovalStatus) ([]*models.ChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var requests []*models.ChangeRequest
	for _, request := range s.requests {
		if status != nil && request.ApprovalStatus != *status {
			continue
		}
		copied := request
		requests = append(requests, &copied)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests, nil
}

// MarkResolved swaps the stored request into its terminal state. The
// pending check happens under the write lock, so concurrent resolutions of
// the same request serialize and the loser gets ErrAlreadyResolved.
func (s *InMemory) MarkResolved(_ context.Context, request *models.ChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[request.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.ApprovalStatus != models.ApprovalStatusPending {
		return sentinel.ErrAlreadyResolved
	}
	s.requests[request.ID] = *request
	return nil
}
