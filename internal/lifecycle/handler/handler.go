package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wardbook/internal/lifecycle/models"
	"wardbook/internal/lifecycle/service"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/httputil"
	"wardbook/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler depends on.
type Service interface {
	CreateRequest(ctx context.Context, input service.CreateRequestInput) (*models.ChangeRequest, error)
	Get(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error)
	List(ctx context.Context, status *models.ApprovalStatus) ([]*models.ChangeRequest, error)
	Approve(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error)
	Reject(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error)
}

// Handler wires change request endpoints to the lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a lifecycle handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts change request endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/change-requests", h.HandleCreate)
	r.Get("/change-requests", h.HandleList)
	r.Get("/change-requests/{requestID}", h.HandleGet)
	r.Post("/change-requests/{requestID}/approve", h.HandleApprove)
	r.Post("/change-requests/{requestID}/reject", h.HandleReject)
}

// HandleCreate handles POST /change-requests requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	request, err := h.service.CreateRequest(ctx, req.ToInput())
	if err != nil {
		h.logger.WarnContext(ctx, "change request creation failed",
			"request_id", requestID,
			"change_type", req.Type,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromChangeRequest(request))
}

// HandleGet handles GET /change-requests/{requestID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	changeRequestID, err := id.ParseChangeRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	request, err := h.service.Get(ctx, changeRequestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromChangeRequest(request))
}

// HandleList handles GET /change-requests?status= requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	requests, err := h.service.List(ctx, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromChangeRequests(requests))
}

// HandleApprove handles POST /change-requests/{requestID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Approve, "change request approval failed")
}

// HandleReject handles POST /change-requests/{requestID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Reject, "change request rejection failed")
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error), failureMsg string) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	changeRequestID, err := id.ParseChangeRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	request, err := op(ctx, changeRequestID)
	if err != nil {
		h.logger.WarnContext(ctx, failureMsg,
			"request_id", requestID,
			"change_request_id", changeRequestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromChangeRequest(request))
}
