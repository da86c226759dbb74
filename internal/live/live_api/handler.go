package live_api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/feed"
	"ms-ordering/internal/live"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/sse"
	"ms-ordering/internal/utils"
)

type Config struct {
	RefreshInterval   time.Duration
	Heartbeat         time.Duration
	DelayAlertMinutes int
	BaseEta           int
}

// TableOrders is the diner side of the order service.
type TableOrders interface {
	live.ClientOrdersSource
	ResolveTableSession(ctx context.Context, number float64, token, restaurantID string) (*models.Table, error)
}

type Handler struct {
	Bus           live.Subscriber
	Orders        TableOrders
	KitchenSource live.KitchenSource
	CallSource    live.CallSource
	Ledger        live.ArrivalLedger
	Config        Config
	Logger        *logger.Logger
}

func NewHandler(bus live.Subscriber, orders TableOrders, kitchen live.KitchenSource, calls live.CallSource, ledger live.ArrivalLedger, cfg Config, log *logger.Logger) *Handler {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = live.DefaultRefreshInterval
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = live.DefaultHeartbeat
	}
	return &Handler{
		Bus:           bus,
		Orders:        orders,
		KitchenSource: kitchen,
		CallSource:    calls,
		Ledger:        ledger,
		Config:        cfg,
		Logger:        log,
	}
}

// Kitchen streams the kitchen queue. ?history=1 streams today's ready orders
// instead; history is refreshed on change events only.
func (h *Handler) Kitchen(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	history := isTrue(r.URL.Query().Get("history"))
	view := live.NewKitchenView(h.KitchenSource, h.Ledger, staff.RestaurantID, live.KitchenOptions{
		History:           history,
		DelayAlertMinutes: h.Config.DelayAlertMinutes,
		BaseEta:           h.Config.BaseEta,
	}, h.Logger)

	interval := h.Config.RefreshInterval
	if history {
		interval = 0
	}
	h.stream(w, r, &live.Synchronizer{
		Bus:       h.Bus,
		Filter:    feed.ForRestaurant(staff.RestaurantID, feed.TableOrders, feed.TableOrderItems, feed.TableItems),
		View:      view,
		Interval:  interval,
		Heartbeat: h.Config.Heartbeat,
		Logger:    h.Logger,
		Name:      "kitchen " + staff.RestaurantID,
	})
}

// Calls streams open server calls and today's ready orders.
func (h *Handler) Calls(w http.ResponseWriter, r *http.Request) {
	staff, ok := auth.Staff(r.Context())
	if !ok {
		utils.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	h.stream(w, r, &live.Synchronizer{
		Bus:       h.Bus,
		Filter:    feed.ForRestaurant(staff.RestaurantID, feed.TableServerCalls, feed.TableOrders),
		View:      live.NewFloorView(h.CallSource, h.KitchenSource, staff.RestaurantID),
		Interval:  h.Config.RefreshInterval,
		Heartbeat: h.Config.Heartbeat,
		Logger:    h.Logger,
		Name:      "floor " + staff.RestaurantID,
	})
}

// Table streams a diner's orders. EventSource cannot send headers, so the
// table session travels in the query string like the JSON endpoint.
func (h *Handler) Table(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	number, _ := strconv.ParseFloat(q.Get("tableNumber"), 64)
	query := order.ClientOrdersQuery{
		TableNumber:  number,
		AccessToken:  q.Get("accessToken"),
		RestaurantID: q.Get("restaurantId"),
		HistoryIDs:   q.Get("historyIds"),
	}

	table, err := h.Orders.ResolveTableSession(r.Context(), query.TableNumber, query.AccessToken, query.RestaurantID)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Table stream rejected: %v", err))
		utils.WriteError(w, err)
		return
	}

	h.stream(w, r, &live.Synchronizer{
		Bus:       h.Bus,
		Filter:    feed.ForDiningTable(table.ID),
		View:      live.NewCustomerView(h.Orders, query),
		Interval:  h.Config.RefreshInterval,
		Heartbeat: h.Config.Heartbeat,
		Logger:    h.Logger,
		Name:      fmt.Sprintf("table %d", table.Number),
	})
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, sync *live.Synchronizer) {
	stream, err := sse.NewStream(w)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("%s: %v", sync.Name, err))
		utils.WriteErrorMessage(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	h.Logger.Info("SSE", fmt.Sprintf("%s: client connected", sync.Name))

	err = sync.Run(r.Context(), func(f live.Frame) error {
		if f.IsHeartbeat() {
			return stream.Ping()
		}
		return stream.Send(f.Event, f.Data)
	})
	if err != nil && utils.StatusCode(err) < 500 {
		stream.Send("error", utils.ErrorBody{Error: utils.PublicMessage(err)})
	}
	h.Logger.Info("SSE", fmt.Sprintf("%s: client disconnected", sync.Name))
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
