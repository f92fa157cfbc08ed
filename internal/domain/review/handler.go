package review

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ladderleague/ladder-api/internal/domain/ledger"
	"github.com/ladderleague/ladder-api/internal/middleware"
	"github.com/ladderleague/ladder-api/internal/pkg/response"
)

// Handler exposes the admin review queue.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// ListPending returns payments awaiting review, oldest first.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListPending(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, records)
}

// Approve completes a held payment and releases its deferred effects.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentId"))
	if err != nil {
		response.BadRequest(w, "invalid payment id")
		return
	}

	rec, err := h.service.Approve(r.Context(), middleware.GetUserID(r.Context()), paymentID)
	if err != nil {
		writeReviewError(w, err)
		return
	}
	response.OK(w, rec)
}

// Reject marks a held payment rejected, freeing the settlement key for
// a fresh attempt.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentId"))
	if err != nil {
		response.BadRequest(w, "invalid payment id")
		return
	}

	var req rejectRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	rec, err := h.service.Reject(r.Context(), middleware.GetUserID(r.Context()), paymentID, req.Reason)
	if err != nil {
		writeReviewError(w, err)
		return
	}
	response.OK(w, rec)
}

func writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrRecordNotFound):
		response.NotFound(w, "payment not found")
	case errors.Is(err, ledger.ErrTerminalStatus):
		response.Conflict(w, "payment already resolved")
	default:
		response.InternalError(w)
	}
}

// Routes mounts the review queue under /review. Admin only.
func (h *Handler) Routes(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)
	r.Get("/pending", h.ListPending)
	r.Post("/{paymentId}/approve", h.Approve)
	r.Post("/{paymentId}/reject", h.Reject)
	return r
}
