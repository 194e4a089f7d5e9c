package users

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/release-agent/core"
	"github.com/dmitrymomot/release-agent/modules/auth"
	"github.com/dmitrymomot/release-agent/pkg/pg"
)

// Handler exposes admin user management over HTTP. All routes assume the
// authentication middleware has already run.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Router mounts the user admin endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{id}/activate", h.setActive(true))
	r.Post("/{id}/deactivate", h.setActive(false))
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.repo.List(r.Context())
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	if result == nil {
		result = []User{}
	}
	core.Render(w, r, core.JSON(result))
}

type createRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	if req.Username == "" || req.Password == "" {
		core.Render(w, r, core.JSONError(core.ErrUnprocessableEntity))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}

	user, err := h.repo.Create(r.Context(), req.Username, hash, req.Email, req.IsAdmin)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			core.Render(w, r, core.JSONError(core.ErrConflict))
			return
		}
		core.Render(w, r, core.JSONError(err))
		return
	}

	core.Render(w, r, core.JSONWithStatus(http.StatusCreated, user))
}

func (h *Handler) setActive(isActive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			core.Render(w, r, core.JSONError(core.ErrBadRequest))
			return
		}

		user, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			core.Render(w, r, core.JSONError(err))
			return
		}
		if user == nil {
			core.Render(w, r, core.JSONError(core.ErrNotFound))
			return
		}

		if err := h.repo.SetActive(r.Context(), id, isActive); err != nil {
			core.Render(w, r, core.JSONError(err))
			return
		}
		user.IsActive = isActive
		core.Render(w, r, core.JSON(user))
	}
}
