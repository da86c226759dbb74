package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", Invalid("bad"), http.StatusBadRequest},
		{"not found", NotFound("nope"), http.StatusNotFound},
		{"forbidden", Forbidden("no"), http.StatusForbidden},
		{"conflict", Conflict("dup"), http.StatusConflict},
		{"unavailable", Unavailable("slow", errors.New("deadline")), http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("ctx: %w", Conflict("dup")), http.StatusConflict},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	errDup := Conflict("rating already exists")
	wrapped := fmt.Errorf("insert: %w", Conflict("rating already exists"))
	assert.True(t, errors.Is(wrapped, errDup))
	assert.False(t, errors.Is(wrapped, Conflict("other")))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	_ = WriteError(rec, Internal("failed to insert order", errors.New("connection reset")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to insert order: connection reset"}`, rec.Body.String())
}

func TestWeekAndDayBounds(t *testing.T) {
	sunday := time.Date(2026, 10, 18, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday))

	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, StartOfWeek(monday))
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(sunday))

	start, end := UTCDayBounds(sunday)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 10, 18, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)
}
