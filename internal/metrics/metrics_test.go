package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/roster"
)

func TestRecorderCounts(t *testing.T) {
	m := New()

	m.EntrantsAdded("public", roster.MealLunch, 3)
	m.EntrantRemoved(roster.MealDinner)
	m.EntrantUpdated(roster.MealLunch)
	m.AccessCodeGenerated(application.CodeSourceManual)
	m.LoginAttempt(application.RoleOperator, "success")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.AddedTotal.WithLabelValues("public", "lunch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemovedTotal.WithLabelValues("dinner")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatedTotal.WithLabelValues("lunch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CodesTotal.WithLabelValues("manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("operator", "success")))
}

func TestNewUsesPrivateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	require.NotPanics(t, func() {
		New()
		New()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/today", http.StatusOK, time.Now())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "roster_http_request_duration_seconds")
	assert.Contains(t, rec.Body.String(), `route="/api/today"`)
}
