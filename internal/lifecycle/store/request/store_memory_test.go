package request

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"wardbook/internal/lifecycle/models"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/sentinel"
)

type InMemoryRequestStoreSuite struct {
	suite.Suite
	store *InMemory
}

func TestInMemoryRequestStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryRequestStoreSuite))
}

func (s *InMemoryRequestStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func pendingRequest() *models.ChangeRequest {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	residentID := id.NewResidentID()
	return &models.ChangeRequest{
		ID:         id.NewChangeRequestID(),
		Type:       models.ChangeTypeMoveOut,
		ResidentID: &residentID,
		Payload: models.Payload{
			MoveOut: &models.MoveOutPayload{ToAddress: "9 Oak Street", FromDate: now},
		},
		ApprovalStatus: models.ApprovalStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *InMemoryRequestStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	request := pendingRequest()

	s.Require().NoError(s.store.Create(ctx, request))

	found, err := s.store.FindByID(ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(request.ID, found.ID)
	s.Equal(models.ApprovalStatusPending, found.ApprovalStatus)

	_, err = s.store.FindByID(ctx, id.NewChangeRequestID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Create(ctx, request), sentinel.ErrConflict)
}

func (s *InMemoryRequestStoreSuite) TestListFiltersByStatus() {
	ctx := context.Background()
	pending := pendingRequest()
	s.Require().NoError(s.store.Create(ctx, pending))

	resolved := pendingRequest()
	s.Require().NoError(s.store.Create(ctx, resolved))
	approver := id.NewUserID()
	resolved.ApplyApproval(approver, time.Now().UTC())
	s.Require().NoError(s.store.MarkResolved(ctx, resolved))

	all, err := s.store.List(ctx, nil)
	s.Require().NoError(err)
	s.Len(all, 2)

	status := models.ApprovalStatusPending
	got, err := s.store.List(ctx, &status)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(pending.ID, got[0].ID)
}

func (s *InMemoryRequestStoreSuite) TestMarkResolvedSwapsOnce() {
	ctx := context.Background()
	request := pendingRequest()
	s.Require().NoError(s.store.Create(ctx, request))

	approver := id.NewUserID()
	request.ApplyApproval(approver, time.Now().UTC())
	s.Require().NoError(s.store.MarkResolved(ctx, request))

	s.Require().ErrorIs(s.store.MarkResolved(ctx, request), sentinel.ErrAlreadyResolved)

	missing := pendingRequest()
	s.Require().ErrorIs(s.store.MarkResolved(ctx, missing), sentinel.ErrNotFound)
}

func (s *InMemoryRequestStoreSuite) TestMarkResolvedUnderContention() {
	ctx := context.Background()
	request := pendingRequest()
	s.Require().NoError(s.store.Create(ctx, request))

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		losers  int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolved := *request
			resolved.ApplyApproval(id.NewUserID(), time.Now().UTC())
			err := s.store.MarkResolved(ctx, &resolved)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else if s.ErrorIs(err, sentinel.ErrAlreadyResolved) {
				losers++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, winners)
	s.Equal(callers-1, losers)
}
