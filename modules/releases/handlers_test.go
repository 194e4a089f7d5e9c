package releases_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/release-agent/modules/analytics"
	"github.com/dmitrymomot/release-agent/modules/releases"
	"github.com/dmitrymomot/release-agent/pkg/cache"
)

type captureRecorder struct {
	events chan analytics.Event
	ctxs   chan context.Context
}

func (r *captureRecorder) Record(ctx context.Context, event analytics.Event) {
	if r.ctxs != nil {
		r.ctxs <- ctx
	}
	r.events <- event
}

func TestHandler_PublicFeed_ServedFromCache(t *testing.T) {
	t.Parallel()

	feed := []releases.PublicRelease{
		{Version: "1.0.0", Notes: "first", PublishedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Version: "1.1.0", Notes: "second", PublishedAt: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)},
	}

	c := releases.NewCache(cache.NewMemoryStore(8), time.Minute, nil)
	c.SetActive(context.Background(), feed)

	recorder := &captureRecorder{events: make(chan analytics.Event, 1)}
	// A primed cache means the repository is never consulted.
	h := releases.NewHandler(releases.NewRepository(nil), c, recorder)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "release-agent-test/1.0")
	req.Header.Set("X-Installation-Id", "install-42")
	rr := httptest.NewRecorder()

	h.PublicRouter().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data []releases.PublicRelease `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, feed, body.Data)

	select {
	case event := <-recorder.events:
		assert.Equal(t, "install-42", event.InstallationID)
		assert.Equal(t, "1.1.0", event.LatestVersion, "latest version is the last feed element")
		assert.Equal(t, http.StatusOK, event.ResponseStatus)
		assert.Equal(t, "release-agent-test/1.0", event.UserAgent)
		assert.False(t, event.RequestedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("analytics event was not recorded")
	}
}

func TestHandler_PublicFeed_RecordingIsDeadlineBounded(t *testing.T) {
	t.Parallel()

	c := releases.NewCache(cache.NewMemoryStore(8), time.Minute, nil)
	c.SetActive(context.Background(), []releases.PublicRelease{{Version: "1.0.0"}})

	recorder := &captureRecorder{
		events: make(chan analytics.Event, 1),
		ctxs:   make(chan context.Context, 1),
	}
	h := releases.NewHandler(releases.NewRepository(nil), c, recorder)

	reqCtx, cancelReq := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(reqCtx)
	rr := httptest.NewRecorder()

	h.PublicRouter().ServeHTTP(rr, req)
	cancelReq() // response written, request context torn down

	select {
	case ctx := <-recorder.ctxs:
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "recorder context must be deadline-bounded")
		assert.NoError(t, ctx.Err(), "recorder context must survive request cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("analytics event was not recorded")
	}
	<-recorder.events
}

func TestHandler_PublicFeed_EmptyFeed(t *testing.T) {
	t.Parallel()

	c := releases.NewCache(cache.NewMemoryStore(8), time.Minute, nil)
	c.SetActive(context.Background(), []releases.PublicRelease{})

	recorder := &captureRecorder{events: make(chan analytics.Event, 1)}
	h := releases.NewHandler(releases.NewRepository(nil), c, recorder)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	h.PublicRouter().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[]}`, rr.Body.String())

	select {
	case event := <-recorder.events:
		assert.Empty(t, event.LatestVersion, "no releases means no latest version")
	case <-time.After(2 * time.Second):
		t.Fatal("analytics event was not recorded")
	}
}
