package calls_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/calls"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Calls  *calls.Service
	Logger *logger.Logger
}

func NewHandler(service *calls.Service, log *logger.Logger) *Handler {
	return &Handler{Calls: service, Logger: log}
}

// CreateCall is called from a diner's phone, no staff session.
func (h *Handler) CreateCall(w http.ResponseWriter, r *http.Request) {
	var req models.ServerCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if _, err := h.Calls.Create(r.Context(), req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateCall rejected: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteOK(w)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	var body struct {
		Status string `json:"statut"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	callID := chi.URLParam(r, "callId")
	if err := h.Calls.UpdateStatus(r.Context(), staff.RestaurantID, callID, body.Status); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateStatus %s: %v", callID, err))
		utils.WriteError(w, err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("call %s set to %s by %s", callID, body.Status, staff.ID))
	utils.WriteOK(w)
}

// ListOpen returns the open calls of the staff member's restaurant.
func (h *Handler) ListOpen(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}
	list, err := h.Calls.OpenCalls(r.Context(), staff.RestaurantID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOpen: %v", err))
		utils.WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.ServerCall{}
	}
	utils.WriteJSON(w, http.StatusOK, list)
}
