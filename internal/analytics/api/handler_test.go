package analytics_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-ordering/internal/analytics"
	"ms-ordering/internal/auth"
	"ms-ordering/internal/database/dbtest"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jwtSecret  = "staff-secret"
	cronSecret = "cron-secret-value"
)

type profiles map[string]*models.StaffProfile

func (p profiles) StaffProfile(_ context.Context, userID string) (*models.StaffProfile, error) {
	return p[userID], nil
}

type countingNotifier struct{ calls int }

func (n *countingNotifier) Name() string { return "test" }

func (n *countingNotifier) Notify(context.Context, *analytics.DailyReport) error {
	n.calls++
	return nil
}

func setup(t *testing.T) (http.Handler, *countingNotifier) {
	db := dbtest.New(t)
	now := time.Now()
	table := dbtest.Table(t, db, "r1", 2, "", now)
	dbtest.Order(t, db, "r1", table.ID, models.OrderReady, 2500, now)
	dbtest.Order(t, db, "r2", table.ID, models.OrderReady, 9000, now)

	log := logger.NewTestLogger()
	notifier := &countingNotifier{}
	svc := analytics.NewService(analytics.NewDB(db), log, notifier)
	guard := auth.NewGuard(auth.NewHMACVerifier(jwtSecret), profiles{
		"owner": {ID: "owner", Role: models.RoleOwner, RestaurantID: "r1"},
		"admin": {ID: "admin", Role: models.RoleAdmin, RestaurantID: "r1"},
		"chef":  {ID: "chef", Role: models.RoleKitchen, RestaurantID: "r1"},
	}, log)
	h := NewHandler(svc, guard, cronSecret, "r2", 3, log)

	r := chi.NewRouter()
	r.With(guard.Require(models.RoleAdmin, models.RoleOwner)).Get("/api/reports/summary", h.Summary)
	r.With(guard.Require(models.RoleOwner)).Get("/api/reports/overview", h.Overview)
	r.Get("/api/reports/daily", h.DailyReport)
	r.Post("/api/reports/daily", h.DailyReport)
	return r, notifier
}

func call(t *testing.T, router http.Handler, method, target, subject string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	switch subject {
	case "":
	case cronSecret:
		req.Header.Set("Authorization", "Bearer "+cronSecret)
	default:
		token, err := auth.SignStaffToken(jwtSecret, subject, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSummary(t *testing.T) {
	router, _ := setup(t)

	w := call(t, router, http.MethodGet, "/api/reports/summary", "admin")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s analytics.Summary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&s))
	assert.Equal(t, int64(2500), s.Revenue)
	assert.Equal(t, 1, s.OrderCount)

	w = call(t, router, http.MethodGet, "/api/reports/summary?from=2026-10-05&to=2026-10-01", "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, router, http.MethodGet, "/api/reports/summary?top=-1", "owner")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, router, http.MethodGet, "/api/reports/summary", "chef")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, router, http.MethodGet, "/api/reports/summary", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOverviewIsOwnerOnly(t *testing.T) {
	router, _ := setup(t)

	w := call(t, router, http.MethodGet, "/api/reports/overview", "owner")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var o analytics.Overview
	require.NoError(t, json.NewDecoder(w.Body).Decode(&o))
	assert.Equal(t, int64(2500), o.Month.Revenue)

	w = call(t, router, http.MethodGet, "/api/reports/overview", "admin")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDailyReportCallers(t *testing.T) {
	router, notifier := setup(t)

	w := call(t, router, http.MethodPost, "/api/reports/daily", cronSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report analytics.DailyReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, "r2", report.RestaurantID)
	assert.True(t, report.Delivery["test"].Sent)

	w = call(t, router, http.MethodGet, "/api/reports/daily", "owner")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, "r1", report.RestaurantID)
	assert.Equal(t, 2, notifier.calls)

	w = call(t, router, http.MethodGet, "/api/reports/daily", "chef")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, router, http.MethodGet, "/api/reports/daily", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 2, notifier.calls)
}
