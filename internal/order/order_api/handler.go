package order_api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "PlaceOrder: received request")

	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceOrder: failed to decode request body: %v", err))
		utils.WriteError(w, order.ErrInvalidPayload)
		return
	}
	h.Logger.Debug("API", fmt.Sprintf("PlaceOrder: table=%v lines=%d", req.TableNumber, len(req.Lines)))

	resp, err := h.OrderService.PlaceOrder(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceOrder: %v", err))
		utils.WriteError(w, err)
		return
	}

	if err := utils.WriteJSON(w, http.StatusCreated, resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceOrder: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("PlaceOrder: order %s created", resp.OrderID))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	h.Logger.Info("API", fmt.Sprintf("GetOrder: orderId=%s", orderID))

	o, err := h.OrderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: %v", err))
		utils.WriteError(w, err)
		return
	}
	if err := utils.WriteJSON(w, http.StatusOK, o); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: failed to encode response: %v", err))
	}
}

// UpdateOrder handles {statut?, eta_minutes?}. An explicit null eta clears it.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	upd, err := decodeUpdate(r)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateOrder: failed to decode request body: %v", err))
		utils.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.OrderService.UpdateOrder(r.Context(), staff.RestaurantID, orderID, upd); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateOrder: %v", err))
		utils.WriteError(w, err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("UpdateOrder: order %s updated by %s", orderID, staff.ID))
	utils.WriteOK(w)
}

func decodeUpdate(r *http.Request) (models.OrderUpdate, error) {
	var upd models.OrderUpdate
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return upd, err
	}

	if v, ok := raw["statut"]; ok && !isNull(v) {
		var status string
		if err := json.Unmarshal(v, &status); err != nil {
			return upd, err
		}
		if status != "" {
			upd.Status = &status
		}
	}
	if v, ok := raw["eta_minutes"]; ok {
		upd.EtaSet = true
		if !isNull(v) {
			var eta float64
			if err := json.Unmarshal(v, &eta); err != nil {
				return upd, err
			}
			upd.EtaMinutes = &eta
		}
	}
	return upd, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// ClientOrders serves a diner's tracking view. Never cached.
func (h *Handler) ClientOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	number, _ := strconv.ParseFloat(q.Get("tableNumber"), 64)

	view, err := h.OrderService.ClientOrders(r.Context(), order.ClientOrdersQuery{
		TableNumber:  number,
		AccessToken:  q.Get("accessToken"),
		RestaurantID: q.Get("restaurantId"),
		HistoryIDs:   q.Get("historyIds"),
	})
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("ClientOrders: %v", err))
		utils.WriteError(w, err)
		return
	}
	if err := utils.WriteJSON(w, http.StatusOK, view); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ClientOrders: failed to encode response: %v", err))
	}
}
