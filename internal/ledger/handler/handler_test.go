package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardbook/internal/ledger/models"
	"wardbook/internal/ledger/service"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
)

// stubService lets each test pin the behavior of exactly the operations the
// handler under test calls.
type stubService struct {
	recordPayment func(ctx context.Context, input service.RecordPaymentInput) (*service.PaymentResult, error)
	amendPayment  func(ctx context.Context, recordID id.FeeRecordID, newAmount int64, newNote string) (*service.PaymentResult, error)
	getBalance    func(ctx context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID) (*models.Balance, error)
}

func (s *stubService) CreateFeeType(context.Context, service.CreateFeeTypeInput) (*models.FeeType, error) {
	return nil, dErrors.New(dErrors.CodeInternal, "not stubbed")
}

func (s *stubService) ActivateFeeType(context.Context, id.FeeTypeID) (*models.FeeType, error) {
	return nil, dErrors.New(dErrors.CodeInternal, "not stubbed")
}

func (s *stubService) DeactivateFeeType(context.Context, id.FeeTypeID) (*models.FeeType, error) {
	return nil, dErrors.New(dErrors.CodeInternal, "not stubbed")
}

func (s *stubService) GetBalance(ctx context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID) (*models.Balance, error) {
	return s.getBalance(ctx, feeTypeID, householdID)
}

func (s *stubService) GetHouseholdBalances(context.Context, id.HouseholdID) ([]service.HouseholdBalance, error) {
	return nil, dErrors.New(dErrors.CodeInternal, "not stubbed")
}

func (s *stubService) RecordPayment(ctx context.Context, input service.RecordPaymentInput) (*service.PaymentResult, error) {
	return s.recordPayment(ctx, input)
}

func (s *stubService) AmendPayment(ctx context.Context, recordID id.FeeRecordID, newAmount int64, newNote string) (*service.PaymentResult, error) {
	return s.amendPayment(ctx, recordID, newAmount, newNote)
}

func newTestRouter(stub *stubService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(stub, logger).Register(r)
	return r
}

func paymentResult(amount int64) *service.PaymentResult {
	return &service.PaymentResult{
		Record: &models.FeeRecord{
			ID:          id.NewFeeRecordID(),
			FeeTypeID:   id.NewFeeTypeID(),
			HouseholdID: id.NewHouseholdID(),
			Amount:      amount,
			Status:      models.PaymentStatusPartial,
			Method:      models.PaymentMethodOffline,
			RecorderID:  id.NewUserID(),
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		},
		Balance: models.Balance{Expected: 150_000, Paid: amount, Remaining: 150_000 - amount, Status: models.PaymentStatusPartial},
	}
}

func TestHandleRecordPayment(t *testing.T) {
	t.Run("valid payment returns 201 with record and balance", func(t *testing.T) {
		stub := &stubService{
			recordPayment: func(_ context.Context, input service.RecordPaymentInput) (*service.PaymentResult, error) {
				return paymentResult(input.Amount), nil
			},
		}
		router := newTestRouter(stub)

		body, err := json.Marshal(map[string]any{
			"fee_type_id":  id.NewFeeTypeID().String(),
			"household_id": id.NewHouseholdID().String(),
			"amount":       100_000,
			"method":       "offline",
		})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body)))

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp PaymentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(100_000), resp.Record.Amount)
		assert.Equal(t, int64(50_000), resp.Balance.Remaining)
		assert.Equal(t, "partial", resp.Balance.Status)
	})

	t.Run("missing method fails validation with 400", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		body, err := json.Marshal(map[string]any{
			"fee_type_id":  id.NewFeeTypeID().String(),
			"household_id": id.NewHouseholdID().String(),
			"amount":       100_000,
		})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ledger boundary violations map to 422", func(t *testing.T) {
		stub := &stubService{
			recordPayment: func(context.Context, service.RecordPaymentInput) (*service.PaymentResult, error) {
				return nil, dErrors.New(dErrors.CodeAlreadySettled, "mandatory fee is already settled for this household")
			},
		}
		router := newTestRouter(stub)

		body, err := json.Marshal(map[string]any{
			"fee_type_id":  id.NewFeeTypeID().String(),
			"household_id": id.NewHouseholdID().String(),
			"amount":       1,
			"method":       "online",
		})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body)))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "already_settled", resp["error"])
	})
}

func TestHandleAmendPayment(t *testing.T) {
	stub := &stubService{
		amendPayment: func(_ context.Context, _ id.FeeRecordID, newAmount int64, _ string) (*service.PaymentResult, error) {
			return paymentResult(newAmount), nil
		},
	}
	router := newTestRouter(stub)

	body, err := json.Marshal(map[string]any{"amount": 50_000, "note": "corrected"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/payments/"+id.NewFeeRecordID().String(), bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("malformed record id is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/payments/not-a-uuid", bytes.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleGetBalance(t *testing.T) {
	stub := &stubService{
		getBalance: func(context.Context, id.FeeTypeID, id.HouseholdID) (*models.Balance, error) {
			return &models.Balance{Expected: 150_000, Paid: 150_000, Remaining: 0, Status: models.PaymentStatusPaid}, nil
		},
	}
	router := newTestRouter(stub)

	t.Run("returns the computed balance", func(t *testing.T) {
		w := httptest.NewRecorder()
		target := "/balances?fee_type_id=" + id.NewFeeTypeID().String() + "&household_id=" + id.NewHouseholdID().String()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp BalanceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "paid", resp.Status)
		assert.Equal(t, int64(0), resp.Remaining)
	})

	t.Run("missing query parameters fail validation", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/balances", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
