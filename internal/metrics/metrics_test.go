package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/notes/{note_id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/notes/"+id, nil))
	}

	got := testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/notes/{note_id}", "404"))
	assert.Equal(t, 3.0, got)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsInFlight))
}

func TestMiddleware_ImplicitOK(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/ping", "200")))
}

func TestRecordDBPoolStats(t *testing.T) {
	m := New()
	m.RecordDBPoolStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3, WaitCount: 2, WaitDuration: 1500 * time.Millisecond})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.DBConnPoolStats.WithLabelValues("open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBConnPoolStats.WithLabelValues("in_use")))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.DBConnPoolStats.WithLabelValues("wait_duration_ms")))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.RequestCounter.WithLabelValues("GET", "/notes/", "200").Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "notekeeper_http_requests_total")
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances in one process must not collide on registration.
	require.NotPanics(t, func() {
		New()
		New()
	})
}
