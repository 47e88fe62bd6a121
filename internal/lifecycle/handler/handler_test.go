package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardbook/internal/lifecycle/models"
	"wardbook/internal/lifecycle/service"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	"wardbook/pkg/testutil"
)

// stubService pins the behavior of exactly the operations each test exercises.
type stubService struct {
	createRequest func(ctx context.Context, input service.CreateRequestInput) (*models.ChangeRequest, error)
	approve       func(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error)
	list          func(ctx context.Context, status *models.ApprovalStatus) ([]*models.ChangeRequest, error)
}

func (s *stubService) CreateRequest(ctx context.Context, input service.CreateRequestInput) (*models.ChangeRequest, error) {
	return s.createRequest(ctx, input)
}

func (s *stubService) Get(context.Context, id.ChangeRequestID) (*models.ChangeRequest, error) {
	return nil, dErrors.New(dErrors.CodeInternal, "not stubbed")
}

func (s *stubService) List(ctx context.Context, status *models.ApprovalStatus) ([]*models.ChangeRequest, error) {
	return s.list(ctx, status)
}

func (s *stubService) Approve(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error) {
	return s.approve(ctx, requestID)
}

func (s *stubService) Reject(context.Context, id.ChangeRequestID) (*models.ChangeRequest, error) {
	return nil, dErrors.New(dErrors.CodeInternal, "not stubbed")
}

func newTestRouter(stub *stubService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(stub, logger).Register(r)
	return r
}

func pendingMoveOut() *models.ChangeRequest {
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

func TestHandleCreate(t *testing.T) {
	t.Run("move-out request returns 201", func(t *testing.T) {
		pending := pendingMoveOut()
		stub := &stubService{
			createRequest: func(_ context.Context, input service.CreateRequestInput) (*models.ChangeRequest, error) {
				require.Equal(t, models.ChangeTypeMoveOut, input.Type)
				require.NotNil(t, input.ResidentID)
				return pending, nil
			},
		}
		router := newTestRouter(stub)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/change-requests", map[string]any{
			"type":        "move_out",
			"resident_id": pending.ResidentID.String(),
			"payload": map[string]any{
				"move_out": map[string]any{
					"to_address": "9 Oak Street",
					"from_date":  "2025-06-01T12:00:00Z",
				},
			},
		})
		req = testutil.WithActor(req, id.NewUserID(), "household")

		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		resp := testutil.UnmarshalResponse[ChangeRequestResponse](t, rr)
		assert.Equal(t, "move_out", resp.Type)
		assert.Equal(t, "pending", resp.ApprovalStatus)
		require.NotNil(t, resp.Payload.MoveOut)
		assert.Equal(t, "9 Oak Street", resp.Payload.MoveOut.ToAddress)
	})

	t.Run("unknown change type fails validation", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		req := testutil.NewJSONRequest(t, http.MethodPost, "/change-requests", map[string]any{
			"type": "teleport",
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("malformed body returns bad_request", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		req := testutil.NewRequestWithBody(t, http.MethodPost, "/change-requests", "{not json")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestHandleApprove(t *testing.T) {
	t.Run("approval returns the resolved request", func(t *testing.T) {
		approved := pendingMoveOut()
		approverID := id.NewUserID()
		approved.ApplyApproval(approverID, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))

		stub := &stubService{
			approve: func(_ context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error) {
				require.Equal(t, approved.ID, requestID)
				return approved, nil
			},
		}
		router := newTestRouter(stub)

		req := testutil.NewRequest(t, http.MethodPost, "/change-requests/"+approved.ID.String()+"/approve")
		req = testutil.WithActor(req, approverID, "staff")

		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)

		resp := testutil.UnmarshalResponse[ChangeRequestResponse](t, rr)
		assert.Equal(t, "approved", resp.ApprovalStatus)
		assert.Equal(t, approverID.String(), resp.ApproverID)
		assert.NotNil(t, resp.ResolvedAt)
	})

	t.Run("double resolution maps to 409", func(t *testing.T) {
		stub := &stubService{
			approve: func(context.Context, id.ChangeRequestID) (*models.ChangeRequest, error) {
				return nil, dErrors.New(dErrors.CodeInvalidTransition, "request is already approved")
			},
		}
		router := newTestRouter(stub)

		req := testutil.NewRequest(t, http.MethodPost, "/change-requests/"+id.NewChangeRequestID().String()+"/approve")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "invalid_transition")
	})

	t.Run("malformed request id is rejected", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		req := testutil.NewRequest(t, http.MethodPost, "/change-requests/not-a-uuid/approve")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestHandleList(t *testing.T) {
	first := pendingMoveOut()
	second := pendingMoveOut()

	stub := &stubService{
		list: func(_ context.Context, status *models.ApprovalStatus) ([]*models.ChangeRequest, error) {
			if status != nil {
				require.Equal(t, models.ApprovalStatusPending, *status)
				return []*models.ChangeRequest{first}, nil
			}
			return []*models.ChangeRequest{first, second}, nil
		},
	}
	router := newTestRouter(stub)

	t.Run("no filter returns everything", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/change-requests"))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[[]*ChangeRequestResponse](t, rr)
		assert.Len(t, *resp, 2)
	})

	t.Run("status filter narrows the list", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/change-requests?status=pending"))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[[]*ChangeRequestResponse](t, rr)
		assert.Len(t, *resp, 1)
	})

	t.Run("unknown status filter fails validation", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/change-requests?status=maybe"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})
}
