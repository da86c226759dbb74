package catalog_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/catalog"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Catalog     *catalog.Resolver
	LoadTimeout time.Duration
	Logger      *logger.Logger
}

func NewHandler(resolver *catalog.Resolver, loadTimeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{Catalog: resolver, LoadTimeout: loadTimeout, Logger: log}
}

type catalogResponse struct {
	*catalog.Snapshot
	BrunchOpen bool `json:"brunchOpen"`
}

// GetCatalog serves the menu snapshot. A load slower than LoadTimeout is 503.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.URL.Query().Get("restaurantId")
	h.Logger.Info("API", fmt.Sprintf("GetCatalog: restaurantId=%q", restaurantID))

	ctx := r.Context()
	if h.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.LoadTimeout)
		defer cancel()
	}

	snap, err := h.Catalog.Load(ctx, restaurantID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetCatalog: %v", err))
		utils.WriteError(w, err)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, catalogResponse{Snapshot: snap, BrunchOpen: snap.BrunchOpen()}); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetCatalog: failed to encode response: %v", err))
	}
}

type availabilityRequest struct {
	Available *bool `json:"disponible"`
}

// SetAvailability toggles an item of the caller's restaurant.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Available == nil {
		utils.WriteErrorMessage(w, http.StatusBadRequest, "disponible must be a boolean")
		return
	}

	h.Logger.Info("API", fmt.Sprintf("SetAvailability: item=%s disponible=%t by=%s", itemID, *req.Available, staff.ID))
	if err := h.Catalog.SetItemAvailability(r.Context(), staff.RestaurantID, itemID, *req.Available); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SetAvailability: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteOK(w)
}
