package player

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ladderleague/ladder-api/internal/pkg/response"
	"github.com/ladderleague/ladder-api/internal/pkg/validator"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type createRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	p := &Player{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := h.repo.Create(r.Context(), p); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Conflict(w, "email already registered")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, p)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid player id")
		return
	}

	p, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			response.NotFound(w, "player not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.repo.List(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, players)
}

// Register attaches player CRUD to the player router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}
