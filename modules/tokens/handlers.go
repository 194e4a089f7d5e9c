package tokens

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/release-agent/core"
	"github.com/dmitrymomot/release-agent/pkg/pg"
)

// Handler exposes admin token management over HTTP. All routes assume the
// authentication middleware has already run.
type Handler struct {
	svc  *Service
	repo *Repository
}

func NewHandler(svc *Service, repo *Repository) *Handler {
	return &Handler{svc: svc, repo: repo}
}

// Router mounts the token admin endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{id}/activate", h.setActive(true))
	r.Post("/{id}/deactivate", h.setActive(false))
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.repo.List(r.Context())
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	if result == nil {
		result = []Token{}
	}
	core.Render(w, r, core.JSON(result))
}

type createRequest struct {
	UserID    int64      `json:"user_id"`
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type createResponse struct {
	Token *Token `json:"token"`
	// Bearer is returned exactly once at creation and is not retrievable
	// afterwards.
	Bearer string `json:"bearer"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	if req.Name == "" || req.UserID == 0 {
		core.Render(w, r, core.JSONError(core.ErrUnprocessableEntity))
		return
	}

	token, bearer, err := h.svc.CreateToken(r.Context(), req.UserID, req.Name, req.ExpiresAt)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			core.Render(w, r, core.JSONError(core.ErrUnprocessableEntity))
			return
		}
		core.Render(w, r, core.JSONError(err))
		return
	}

	core.Render(w, r, core.JSONWithStatus(http.StatusCreated, createResponse{Token: token, Bearer: bearer}))
}

func (h *Handler) setActive(isActive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			core.Render(w, r, core.JSONError(core.ErrBadRequest))
			return
		}

		token, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			core.Render(w, r, core.JSONError(err))
			return
		}
		if token == nil {
			core.Render(w, r, core.JSONError(core.ErrNotFound))
			return
		}

		if err := h.svc.SetActive(r.Context(), []int64{id}, isActive); err != nil {
			core.Render(w, r, core.JSONError(err))
			return
		}
		token.IsActive = isActive
		core.Render(w, r, core.JSON(token))
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
