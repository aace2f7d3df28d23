package httpmiddleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

func newRouter(apply func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	apply(r)
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get(CorrelationHeader)))
	})
	r.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	return r
}

func TestCorrelationIDReplacesClientValue(t *testing.T) {
	r := newRouter(func(r chi.Router) { r.Use(CorrelationID()) })

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(CorrelationHeader, "client-chosen")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	id := rec.Header().Get(CorrelationHeader)
	assert.NotEqual(t, "client-chosen", id)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.Body.String())
}

func TestDefaultStack(t *testing.T) {
	r := newRouter(func(r chi.Router) { ApplyToRouter(r, DefaultConfig()) })

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "http://dashboard.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(CorrelationHeader))
}

func TestRecovery(t *testing.T) {
	r := newRouter(func(r chi.Router) { ApplyToRouter(r, DefaultConfig()) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWithLoggerLogsRequests(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.Config{Level: logger.DebugLevel, Format: "json", Output: &buf})
	r := newRouter(func(r chi.Router) { WithLogger(r, log) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Contains(t, buf.String(), "HTTP request served")
	assert.Contains(t, buf.String(), `"http_path":"/status"`)
}
