package settlement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/ledger"
	"github.com/ladderleague/ladder-api/internal/pkg/response"
	"github.com/ladderleague/ladder-api/internal/pkg/validator"
)

// Handler exposes match settlement and out-of-band payment entry.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type settleRequest struct {
	PlayerID      string `json:"player_id" validate:"required,uuid"`
	PaymentMethod string `json:"payment_method" validate:"payment_method"`
}

type recordPaymentRequest struct {
	PlayerID      string `json:"player_id" validate:"required,uuid"`
	PaymentType   string `json:"payment_type" validate:"required,payment_type"`
	Amount        string `json:"amount" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"payment_method"`
	Notes         string `json:"notes"`
}

// Settle runs fee settlement for a reported match. Retries are safe:
// a duplicate attempt returns the prior outcome.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid match id")
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	playerID, err := uuid.Parse(req.PlayerID)
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	outcome, err := h.service.SettleMatchFee(r.Context(), playerID, matchID, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, ErrConcurrencyConflict):
			response.Conflict(w, "a concurrent settlement is in progress, retry")
		case errors.Is(err, ErrGatewayDeclined):
			response.Error(w, http.StatusPaymentRequired, "GATEWAY_DECLINED", err.Error())
		case errors.Is(err, ErrGatewayUnavailable):
			response.Error(w, http.StatusBadGateway, "GATEWAY_UNAVAILABLE", "payment gateway unavailable")
		default:
			response.InternalError(w)
		}
		return
	}

	if outcome.Duplicate {
		response.OK(w, outcome)
		return
	}
	response.Created(w, outcome)
}

// RecordPayment books a dues payment collected outside the app.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	playerID, err := uuid.Parse(req.PlayerID)
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		response.BadRequest(w, "amount must be a positive decimal string")
		return
	}

	rec, err := h.service.RecordPayment(r.Context(), playerID, ledger.PaymentType(req.PaymentType), amount, req.PaymentMethod, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedType):
			response.BadRequest(w, "payment type cannot be recorded through this endpoint")
		case errors.Is(err, ledger.ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than 0")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, rec)
}

// MatchRoutes mounts settlement under /matches.
func (h *Handler) MatchRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/{id}/settle", h.Settle)
	return r
}

// PaymentRoutes mounts out-of-band payment entry under /payments.
func (h *Handler) PaymentRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.RecordPayment)
	return r
}
