package table_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/tables"
	"ms-ordering/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Tables *tables.Service
	Logger *logger.Logger
}

func NewHandler(service *tables.Service, log *logger.Logger) *Handler {
	return &Handler{Tables: service, Logger: log}
}

// tableView exposes the access token to admins only.
type tableView struct {
	models.Table
	AccessToken string `json:"access_token,omitempty"`
}

func view(t *models.Table) tableView {
	v := tableView{Table: *t}
	if t.AccessToken != nil {
		v.AccessToken = *t.AccessToken
	}
	return v
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	list, err := h.Tables.List(r.Context(), staff.RestaurantID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTables: %v", err))
		utils.WriteError(w, err)
		return
	}
	views := make([]tableView, 0, len(list))
	for i := range list {
		views = append(views, view(&list[i]))
	}
	utils.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	var req struct {
		Number float64 `json:"numero"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	table, err := h.Tables.Create(r.Context(), staff.RestaurantID, req.Number)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateTable: %v", err))
		utils.WriteError(w, err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateTable: table %d created in %s", table.Number, staff.RestaurantID))
	utils.WriteJSON(w, http.StatusCreated, view(table))
}

func (h *Handler) RotateToken(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}
	tableID := chi.URLParam(r, "tableId")

	table, err := h.Tables.RotateToken(r.Context(), staff.RestaurantID, tableID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RotateToken: %v", err))
		utils.WriteError(w, err)
		return
	}
	h.Logger.LogSecurity("TABLE_TOKEN_ROTATED", fmt.Sprintf("table=%s by=%s", tableID, staff.ID))
	utils.WriteJSON(w, http.StatusOK, view(table))
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	var req struct {
		Status string `json:"statut"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.Tables.SetStatus(r.Context(), staff.RestaurantID, chi.URLParam(r, "tableId"), req.Status); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SetStatus: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteOK(w)
}

// QRCode serves the table's QR code PNG; ?size= sets the edge in pixels.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	png, err := h.Tables.QRCode(r.Context(), staff.RestaurantID, chi.URLParam(r, "tableId"), size)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("QRCode: %v", err))
		utils.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("QRCode: failed to write image: %v", err))
	}
}
