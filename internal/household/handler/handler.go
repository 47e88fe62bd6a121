package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wardbook/internal/household/models"
	"wardbook/internal/household/service"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/httputil"
	"wardbook/pkg/requestcontext"
)

// Service defines the registry operations the handler depends on.
type Service interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.HouseholdDetails, error)
	Get(ctx context.Context, householdID id.HouseholdID) (*service.HouseholdDetails, error)
	ListResidents(ctx context.Context, householdID id.HouseholdID) ([]*models.Resident, error)
	ToggleStatus(ctx context.Context, householdID id.HouseholdID) (*models.Household, error)
}

// Handler wires household registry endpoints to the household service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a household handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts household endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/households", h.HandleRegister)
	r.Get("/households/{householdID}", h.HandleGet)
	r.Get("/households/{householdID}/residents", h.HandleListResidents)
	r.Post("/households/{householdID}/toggle-status", h.HandleToggleStatus)
}

// HandleRegister handles POST /households requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	details, err := h.service.Register(ctx, req.ToInput())
	if err != nil {
		h.logger.WarnContext(ctx, "household registration failed",
			"request_id", requestID,
			"code", req.Code,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromDetails(details))
}

// HandleGet handles GET /households/{householdID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID, err := id.ParseHouseholdID(chi.URLParam(r, "householdID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	details, err := h.service.Get(ctx, householdID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDetails(details))
}

// HandleListResidents handles GET /households/{householdID}/residents.
func (h *Handler) HandleListResidents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID, err := id.ParseHouseholdID(chi.URLParam(r, "householdID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	residents, err := h.service.ListResidents(ctx, householdID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResidents(residents))
}

// HandleToggleStatus handles POST /households/{householdID}/toggle-status.
func (h *Handler) HandleToggleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	householdID, err := id.ParseHouseholdID(chi.URLParam(r, "householdID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	household, err := h.service.ToggleStatus(ctx, householdID)
	if err != nil {
		h.logger.WarnContext(ctx, "household status toggle failed",
			"request_id", requestID,
			"household_id", householdID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromHousehold(household))
}
