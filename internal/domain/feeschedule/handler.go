package feeschedule

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/pkg/response"
	"github.com/ladderleague/ladder-api/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type updateRequest struct {
	RegistrationFee  decimal.Decimal `json:"registration_fee" validate:"required"`
	WeeklyDues       decimal.Decimal `json:"weekly_dues" validate:"required"`
	TotalWeeks       int             `json:"total_weeks" validate:"required,min=1"`
	ParticipationFee decimal.Decimal `json:"participation_fee"`
	MatchFee         decimal.Decimal `json:"match_fee" validate:"required"`
	MembershipFee    decimal.Decimal `json:"membership_fee" validate:"required"`
	PenaltyStrike1   decimal.Decimal `json:"penalty_strike1"`
	PenaltyStrike2   decimal.Decimal `json:"penalty_strike2"`
	PenaltyStrike3   decimal.Decimal `json:"penalty_strike3"`
}

// Current returns the schedule version in effect.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.Current(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, schedule)
}

// Update publishes a new schedule version. The change applies to future
// charges only; existing payment rows keep their stamped version.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	next, err := h.service.Update(r.Context(), FeeSchedule{
		RegistrationFee:  req.RegistrationFee,
		WeeklyDues:       req.WeeklyDues,
		TotalWeeks:       req.TotalWeeks,
		ParticipationFee: req.ParticipationFee,
		MatchFee:         req.MatchFee,
		MembershipFee:    req.MembershipFee,
		PenaltyStrike1:   req.PenaltyStrike1,
		PenaltyStrike2:   req.PenaltyStrike2,
		PenaltyStrike3:   req.PenaltyStrike3,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNegativeAmount), errors.Is(err, ErrInvalidWeeks):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, next)
}

// Routes mounts schedule management under /feeschedule. Admin only.
func (h *Handler) Routes(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)
	r.Get("/", h.Current)
	r.Put("/", h.Update)
	return r
}
