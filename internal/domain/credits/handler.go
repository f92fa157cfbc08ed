package credits

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/pkg/response"
	"github.com/ladderleague/ladder-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type purchaseRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"payment_method"`
	ReferenceID   string          `json:"reference_id" validate:"required"`
}

// Purchase tops up a player's prepaid credits.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	rec, err := h.svc.Purchase(r.Context(), playerID, req.Amount, req.PaymentMethod, req.ReferenceID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero and reference_id is required")
		case errors.Is(err, ErrReferenceConflict):
			response.Conflict(w, "reference_id already used with a different amount")
		default:
			response.InternalError(w)
		}
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), playerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, map[string]interface{}{
		"payment": rec,
		"balance": balance,
	})
}

// Balance returns the player's credit balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), playerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"balance": balance})
}

// Transactions returns the player's credit history.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.svc.ListTransactions(r.Context(), playerID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, transactions)
}

// Register attaches credit endpoints to the player router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/{id}/credits/purchase", h.Purchase)
	r.Get("/{id}/credits/balance", h.Balance)
	r.Get("/{id}/credits/transactions", h.Transactions)
}
