package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wardbook/internal/ledger/models"
	"wardbook/internal/ledger/service"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	"wardbook/pkg/platform/httputil"
	"wardbook/pkg/requestcontext"
)

// Service defines the ledger operations the handler depends on.
type Service interface {
	CreateFeeType(ctx context.Context, input service.CreateFeeTypeInput) (*models.FeeType, error)
	ActivateFeeType(ctx context.Context, feeTypeID id.FeeTypeID) (*models.FeeType, error)
	DeactivateFeeType(ctx context.Context, feeTypeID id.FeeTypeID) (*models.FeeType, error)
	GetBalance(ctx context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID) (*models.Balance, error)
	GetHouseholdBalances(ctx context.Context, householdID id.HouseholdID) ([]service.HouseholdBalance, error)
	RecordPayment(ctx context.Context, input service.RecordPaymentInput) (*service.PaymentResult, error)
	AmendPayment(ctx context.Context, recordID id.FeeRecordID, newAmount int64, newNote string) (*service.PaymentResult, error)
}

// Handler wires fee ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/fee-types", h.HandleCreateFeeType)
	r.Post("/fee-types/{feeTypeID}/activate", h.HandleActivateFeeType)
	r.Post("/fee-types/{feeTypeID}/deactivate", h.HandleDeactivateFeeType)
	r.Post("/payments", h.HandleRecordPayment)
	r.Patch("/payments/{recordID}", h.HandleAmendPayment)
	r.Get("/balances", h.HandleGetBalance)
	r.Get("/households/{householdID}/balances", h.HandleHouseholdBalances)
}

// HandleCreateFeeType handles POST /fee-types requests.
func (h *Handler) HandleCreateFeeType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateFeeTypeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	feeType, err := h.service.CreateFeeType(ctx, req.ToInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromFeeType(feeType))
}

// HandleActivateFeeType handles POST /fee-types/{feeTypeID}/activate.
func (h *Handler) HandleActivateFeeType(w http.ResponseWriter, r *http.Request) {
	h.toggleFeeType(w, r, h.service.ActivateFeeType)
}

// HandleDeactivateFeeType handles POST /fee-types/{feeTypeID}/deactivate.
func (h *Handler) HandleDeactivateFeeType(w http.ResponseWriter, r *http.Request) {
	h.toggleFeeType(w, r, h.service.DeactivateFeeType)
}

func (h *Handler) toggleFeeType(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, feeTypeID id.FeeTypeID) (*models.FeeType, error)) {
	ctx := r.Context()
	feeTypeID, err := id.ParseFeeTypeID(chi.URLParam(r, "feeTypeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	feeType, err := op(ctx, feeTypeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFeeType(feeType))
}

// HandleRecordPayment handles POST /payments requests.
func (h *Handler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RecordPaymentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.RecordPayment(ctx, req.ToInput())
	if err != nil {
		h.logger.WarnContext(ctx, "payment rejected",
			"request_id", requestID,
			"fee_type_id", req.FeeTypeID,
			"household_id", req.HouseholdID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromPaymentResult(result))
}

// HandleAmendPayment handles PATCH /payments/{recordID} requests.
func (h *Handler) HandleAmendPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	recordID, err := id.ParseFeeRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AmendPaymentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.AmendPayment(ctx, recordID, req.Amount, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "payment amendment rejected",
			"request_id", requestID,
			"fee_record_id", recordID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPaymentResult(result))
}

// HandleGetBalance handles GET /balances?fee_type_id=&household_id=.
func (h *Handler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	rawFeeType := query.Get("fee_type_id")
	rawHousehold := query.Get("household_id")
	if rawFeeType == "" || rawHousehold == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "fee_type_id and household_id query parameters are required"))
		return
	}
	feeTypeID, err := id.ParseFeeTypeID(rawFeeType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	householdID, err := id.ParseHouseholdID(rawHousehold)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.service.GetBalance(ctx, feeTypeID, householdID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBalance(balance))
}

// HandleHouseholdBalances handles GET /households/{householdID}/balances.
func (h *Handler) HandleHouseholdBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID, err := id.ParseHouseholdID(chi.URLParam(r, "householdID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balances, err := h.service.GetHouseholdBalances(ctx, householdID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromHouseholdBalances(balances))
}
