package core_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/release-agent/core"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	core.Render(w, r, core.JSON(map[string]string{"version": "1.2.3"}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var body core.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body.Error)
}

func TestJSONWithStatus(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	core.Render(w, r, core.JSONWithStatus(http.StatusCreated, map[string]string{"id": "1"}))

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("http error maps to its status and key", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		core.Render(w, r, core.JSONError(core.ErrUnauthorized))

		require.Equal(t, http.StatusUnauthorized, w.Code)

		var body core.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.NotNil(t, body.Error)
		assert.Equal(t, "unauthorized", body.Error.Code)
	})

	t.Run("wrapped http error is unwrapped", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		wrapped := errors.Join(core.ErrNotFound, errors.New("release 42 missing"))
		core.Render(w, r, core.JSONError(wrapped))

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown error becomes generic 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		core.Render(w, r, core.JSONError(errors.New("pg: connection refused")))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}
