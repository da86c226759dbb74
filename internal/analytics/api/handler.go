package analytics_api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ms-ordering/internal/analytics"
	"ms-ordering/internal/auth"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

const maxTopItems = 50

type Handler struct {
	Reports             *analytics.Service
	Guard               *auth.Guard
	CronSecret          string
	DefaultRestaurantID string
	TopN                int
	Logger              *logger.Logger
}

func NewHandler(reports *analytics.Service, guard *auth.Guard, cronSecret, defaultRestaurantID string, topN int, log *logger.Logger) *Handler {
	return &Handler{
		Reports:             reports,
		Guard:               guard,
		CronSecret:          cronSecret,
		DefaultRestaurantID: defaultRestaurantID,
		TopN:                topN,
		Logger:              log,
	}
}

// Summary serves an ad hoc window. Without bounds it covers today.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	q := r.URL.Query()
	window := analytics.Today(h.Reports.Now())
	if q.Get("from") != "" || q.Get("to") != "" {
		var err error
		if window, err = analytics.DateRange(q.Get("from"), q.Get("to")); err != nil {
			utils.WriteError(w, err)
			return
		}
	}

	topN, err := h.topN(q.Get("top"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	summary, err := h.Reports.Summarize(r.Context(), staff.RestaurantID, window, topN)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Summary: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) topN(raw string) (int, error) {
	if raw == "" {
		return h.TopN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxTopItems {
		return 0, utils.Invalid(fmt.Sprintf("top must be an integer between 0 and %d", maxTopItems))
	}
	return n, nil
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}
	overview, err := h.Reports.Overview(r.Context(), staff.RestaurantID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Overview: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, overview)
}

// DailyReport composes and delivers today's report. A scheduler may call
// it with the cron secret as bearer, in which case the default restaurant
// is reported.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := h.caller(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	report, err := h.Reports.DailyReport(r.Context(), restaurantID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DailyReport: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) caller(r *http.Request) (string, error) {
	if h.isCron(r) {
		if h.DefaultRestaurantID == "" {
			return "", utils.Invalid("no default restaurant configured for scheduled reports")
		}
		h.Logger.LogSecurity("CRON_REPORT", "daily report triggered by scheduler")
		return h.DefaultRestaurantID, nil
	}
	staff, err := h.Guard.Authenticate(r, models.RoleAdmin, models.RoleOwner)
	if err != nil {
		return "", err
	}
	return staff.RestaurantID, nil
}

func (h *Handler) isCron(r *http.Request) bool {
	if h.CronSecret == "" {
		return false
	}
	raw, err := auth.ExtractTokenFromRequest(r)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(raw)), []byte(h.CronSecret)) == 1
}
