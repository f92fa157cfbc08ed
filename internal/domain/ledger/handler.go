package ledger

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/feeschedule"
	"github.com/ladderleague/ladder-api/internal/domain/notification"
	"github.com/ladderleague/ladder-api/internal/pkg/response"
	"github.com/ladderleague/ladder-api/internal/pkg/validator"
)

// Handler exposes derived balance, history and penalty endpoints.
type Handler struct {
	repo          *Repository
	schedules     *feeschedule.Service
	balancePolicy BalancePolicy
	trustPolicy   TrustPolicy
	notifier      notification.Notifier
}

func NewHandler(repo *Repository, schedules *feeschedule.Service, balancePolicy BalancePolicy, trustPolicy TrustPolicy, notifier notification.Notifier) *Handler {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Handler{
		repo:          repo,
		schedules:     schedules,
		balancePolicy: balancePolicy,
		trustPolicy:   trustPolicy,
		notifier:      notifier,
	}
}

type balanceResponse struct {
	PlayerID      uuid.UUID       `json:"player_id"`
	Balance       decimal.Decimal `json:"balance"`
	Status        BalanceStatus   `json:"status"`
	TrustTier     Tier            `json:"trust_tier"`
	TrustStats    TrustStats      `json:"trust_stats"`
	ExpectedTotal decimal.Decimal `json:"expected_total"`
}

type penaltyRequest struct {
	StrikeLevel int    `json:"strike_level" validate:"required,strike_level"`
	Reason      string `json:"reason" validate:"required"`
}

// Balance returns the player's recomputed balance, status bucket and
// trust tier. Always derived from the ledger, never persisted.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	schedule, err := h.schedules.Current(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	payments, err := h.repo.ListByPlayer(r.Context(), playerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	penalties, err := h.repo.ListPenalties(r.Context(), playerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	stats, err := h.repo.GetTrustStats(r.Context(), playerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	balance, status := ComputeBalance(schedule, payments, penalties, h.balancePolicy)

	response.OK(w, balanceResponse{
		PlayerID:      playerID,
		Balance:       balance,
		Status:        status,
		TrustTier:     Classify(stats, h.trustPolicy),
		TrustStats:    stats,
		ExpectedTotal: schedule.ExpectedTotal(),
	})
}

// History returns the player's full ledger, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	records, err := h.repo.ListByPlayer(r.Context(), playerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, records)
}

// AddPenalty records a strike. The fine amount comes from the current
// fee schedule's penalty structure; a zero strike-3 amount means
// removal rather than a fine.
func (h *Handler) AddPenalty(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	var req penaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	schedule, err := h.schedules.Current(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	penalty := &Penalty{
		PlayerID:    playerID,
		Amount:      schedule.PenaltyAmount(req.StrikeLevel),
		StrikeLevel: req.StrikeLevel,
		Reason:      req.Reason,
	}
	if err := h.repo.AddPenalty(r.Context(), penalty); err != nil {
		switch {
		case errors.Is(err, ErrInvalidStrikeLevel):
			response.BadRequest(w, "strike level must be 1, 2 or 3")
		default:
			response.InternalError(w)
		}
		return
	}

	h.notifier.Publish(r.Context(), notification.Event{
		Type:     notification.EventPenaltyIssued,
		PlayerID: playerID,
		Amount:   penalty.Amount.String(),
		Detail:   req.Reason,
	})

	response.Created(w, penalty)
}

// ListPenalties returns the player's strikes.
func (h *Handler) ListPenalties(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	penalties, err := h.repo.ListPenalties(r.Context(), playerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, penalties)
}

// Register attaches derived-state endpoints to the player router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/{id}/balance", h.Balance)
	r.Get("/{id}/payments", h.History)
	r.Post("/{id}/penalties", h.AddPenalty)
	r.Get("/{id}/penalties", h.ListPenalties)
}
