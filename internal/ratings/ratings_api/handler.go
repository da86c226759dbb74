package ratings_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/ratings"
	"ms-ordering/internal/utils"
)

type Handler struct {
	Ratings *ratings.Service
	Logger  *logger.Logger
}

func NewHandler(service *ratings.Service, log *logger.Logger) *Handler {
	return &Handler{Ratings: service, Logger: log}
}

func (h *Handler) CreateRating(w http.ResponseWriter, r *http.Request) {
	var req models.RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, ratings.ErrInvalidRating)
		return
	}

	if _, err := h.Ratings.Rate(r.Context(), req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateRating %s: %v", req.OrderID, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteOK(w)
}
