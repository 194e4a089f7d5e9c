package releases

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/release-agent/core"
	"github.com/dmitrymomot/release-agent/modules/analytics"
	"github.com/dmitrymomot/release-agent/pkg/pg"
)

// Handler exposes the release endpoints: an unauthenticated public feed and
// the token-protected admin CRUD.
type Handler struct {
	repo     *Repository
	cache    *Cache
	recorder analytics.Recorder
}

func NewHandler(repo *Repository, cache *Cache, recorder analytics.Recorder) *Handler {
	if recorder == nil {
		recorder = analytics.NoopRecorder{}
	}
	return &Handler{repo: repo, cache: cache, recorder: recorder}
}

// PublicRouter mounts the unauthenticated feed.
func (h *Handler) PublicRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.publicFeed)
	return r
}

// AdminRouter mounts the admin CRUD endpoints. All routes assume the
// authentication middleware has already run.
func (h *Handler) AdminRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/activate", h.setActive(true))
	r.Post("/{id}/deactivate", h.setActive(false))
	return r
}

func (h *Handler) publicFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	feed, cached := h.cache.GetActive(ctx)
	if !cached {
		active, err := h.repo.ListActive(ctx)
		if err != nil {
			h.record(r, "", http.StatusInternalServerError)
			core.Render(w, r, core.JSONError(err))
			return
		}
		feed = make([]PublicRelease, 0, len(active))
		for _, rel := range active {
			feed = append(feed, rel.Public())
		}
		h.cache.SetActive(ctx, feed)
	}

	latest := ""
	if len(feed) > 0 {
		latest = feed[len(feed)-1].Version
	}
	h.record(r, latest, http.StatusOK)

	core.Render(w, r, core.JSON(feed))
}

// recordTimeout bounds a single analytics indexing attempt so a stalled
// backend cannot pin one goroutine per feed request.
const recordTimeout = 5 * time.Second

// record logs a feed request to analytics. The recorder gets a context
// detached from the request (so indexing is not cut short when the response
// is already written) but bounded by its own deadline.
func (h *Handler) record(r *http.Request, latest string, status int) {
	event := analytics.Event{
		InstallationID: r.Header.Get("X-Installation-Id"),
		LatestVersion:  latest,
		ResponseStatus: status,
		UserAgent:      r.UserAgent(),
		RequestedAt:    time.Now().UTC(),
	}

	detached := context.WithoutCancel(r.Context())
	go func() {
		ctx, cancel := context.WithTimeout(detached, recordTimeout)
		defer cancel()
		h.recorder.Record(ctx, event)
	}()
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.repo.List(r.Context())
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	if result == nil {
		result = []Release{}
	}
	core.Render(w, r, core.JSON(result))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rel, ok := h.loadByParam(w, r)
	if !ok {
		return
	}
	core.Render(w, r, core.JSON(rel))
}

type releaseRequest struct {
	Version     string     `json:"version"`
	Notes       string     `json:"notes"`
	URL         string     `json:"url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	if req.Version == "" {
		core.Render(w, r, core.JSONError(core.ErrUnprocessableEntity))
		return
	}

	publishedAt := time.Now().UTC()
	if req.PublishedAt != nil {
		publishedAt = *req.PublishedAt
	}

	rel, err := h.repo.Create(r.Context(), req.Version, req.Notes, req.URL, publishedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			core.Render(w, r, core.JSONError(core.ErrConflict))
			return
		}
		core.Render(w, r, core.JSONError(err))
		return
	}

	h.cache.Invalidate(r.Context())
	core.Render(w, r, core.JSONWithStatus(http.StatusCreated, rel))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	current, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	if current == nil {
		core.Render(w, r, core.JSONError(core.ErrNotFound))
		return
	}

	publishedAt := current.PublishedAt
	if req.PublishedAt != nil {
		publishedAt = *req.PublishedAt
	}

	rel, err := h.repo.Update(r.Context(), id, req.Notes, req.URL, publishedAt)
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}

	h.cache.Invalidate(r.Context())
	core.Render(w, r, core.JSON(rel))
}

func (h *Handler) setActive(isActive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel, ok := h.loadByParam(w, r)
		if !ok {
			return
		}

		if err := h.repo.SetActive(r.Context(), []int64{rel.ID}, isActive); err != nil {
			core.Render(w, r, core.JSONError(err))
			return
		}

		h.cache.Invalidate(r.Context())
		rel.IsActive = isActive
		core.Render(w, r, core.JSON(rel))
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

	h.cache.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// loadByParam fetches the release addressed by the {id} URL parameter,
// rendering the error response itself when it fails.
func (h *Handler) loadByParam(w http.ResponseWriter, r *http.Request) (*Release, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return nil, false
	}

	rel, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		core.Render(w, r, core.JSONError(err))
		return nil, false
	}
	if rel == nil {
		core.Render(w, r, core.JSONError(core.ErrNotFound))
		return nil, false
	}
	return rel, true
}
