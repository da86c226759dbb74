package ratings_api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-ordering/internal/database/dbtest"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/ratings"
	ratingsdb "ms-ordering/internal/ratings/db"

	"github.com/stretchr/testify/assert"
)

func TestCreateRatingStatuses(t *testing.T) {
	db := dbtest.New(t)
	table := dbtest.Table(t, db, "r1", 1, "", time.Now())
	ready := dbtest.Order(t, db, "r1", table.ID, models.OrderReady, 1000, time.Now())
	cooking := dbtest.Order(t, db, "r1", table.ID, models.OrderReceived, 1000, time.Now())
	h := NewHandler(ratings.NewService(&ratingsdb.DB{Bun: db}, nil, nil, logger.NewTestLogger()), logger.NewTestLogger())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"garbage", `{`, http.StatusBadRequest},
		{"bad score", `{"orderId":"` + ready.ID + `","note":9}`, http.StatusBadRequest},
		{"unknown order", `{"orderId":"missing","note":4}`, http.StatusNotFound},
		{"not ready", `{"orderId":"` + cooking.ID + `","note":4}`, http.StatusConflict},
		{"ok", `{"orderId":"` + ready.ID + `","note":4,"commentaire":"merci"}`, http.StatusOK},
		{"duplicate", `{"orderId":"` + ready.ID + `","note":5}`, http.StatusConflict},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.CreateRating(w, httptest.NewRequest(http.MethodPost, "/api/ratings", strings.NewReader(tt.body)))
		assert.Equal(t, tt.want, w.Code, tt.name)
	}
}
