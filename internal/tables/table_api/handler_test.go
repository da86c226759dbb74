package table_api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/database/dbtest"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/tables"
	tablesdb "ms-ordering/internal/tables/db"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func router(t *testing.T) http.Handler {
	db := dbtest.New(t)
	service := tables.NewService(&tablesdb.DB{Bun: db}, nil, "https://resto.example/table", 32)
	h := NewHandler(service, logger.NewTestLogger())

	owner := &models.StaffProfile{ID: "boss", Role: models.RoleOwner, RestaurantID: "r1"}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithStaff(req.Context(), owner)))
		})
	})
	r.Get("/tables", h.ListTables)
	r.Post("/tables", h.CreateTable)
	r.Post("/tables/{tableId}/token", h.RotateToken)
	r.Patch("/tables/{tableId}", h.SetStatus)
	r.Get("/tables/{tableId}/qr.png", h.QRCode)
	return r
}

type created struct {
	ID          string `json:"id"`
	Number      int    `json:"numero"`
	QRCode      string `json:"qr_code"`
	AccessToken string `json:"access_token"`
}

func TestTableAdminFlow(t *testing.T) {
	r := router(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tables", strings.NewReader(`{"numero":7}`)))
	require.Equal(t, http.StatusCreated, w.Code)
	var table created
	require.NoError(t, json.NewDecoder(w.Body).Decode(&table))
	assert.Equal(t, 7, table.Number)
	assert.Len(t, table.AccessToken, 32)
	assert.Equal(t, "https://resto.example/table/7?access="+table.AccessToken, table.QRCode)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tables", strings.NewReader(`{"numero":7}`)))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tables/"+table.ID+"/token", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var rotated created
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rotated))
	assert.NotEqual(t, table.AccessToken, rotated.AccessToken)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tables/"+table.ID+"/qr.png?size=128", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/tables/"+table.ID, strings.NewReader(`{"statut":"closed"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/tables/"+table.ID, strings.NewReader(`{"statut":"inactive"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tables", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []created
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, rotated.AccessToken, list[0].AccessToken)
}

func TestMissingTable(t *testing.T) {
	r := router(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tables/nope/token", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"table not found"}`, w.Body.String())
}
