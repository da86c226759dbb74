package live

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/utils"
)

const DefaultDelayAlertMinutes = 18

type KitchenSource interface {
	KitchenOrders(ctx context.Context, restaurantID string, since time.Time, statuses []string) ([]models.Order, error)
}

type KitchenOptions struct {
	// History shows today's ready orders, newest first, instead of the live queue.
	History           bool
	DelayAlertMinutes int
	BaseEta           int
}

type KitchenOrder struct {
	models.Order
	ElapsedMinutes int  `json:"elapsed_minutes"`
	Delayed        bool `json:"delayed"`
	SuggestedEta   int  `json:"suggested_eta"`
	Units          int  `json:"units"`
}

type KitchenSnapshot struct {
	RestaurantID string         `json:"restaurant_id"`
	History      bool           `json:"history"`
	Orders       []KitchenOrder `json:"orders"`
	DelayedCount int            `json:"delayed_count"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// Arrivals lists orders that appeared since the previous refresh. Print holds
// the subset this screen won in the ledger and should send to the printer.
type Arrivals struct {
	OrderIDs []string `json:"order_ids"`
	Print    []string `json:"print"`
}

// KitchenView is the state of one kitchen screen.
type KitchenView struct {
	Source       KitchenSource
	Ledger       ArrivalLedger
	RestaurantID string
	Options      KitchenOptions
	Logger       *logger.Logger

	seen *tracker
	now  func() time.Time
}

func NewKitchenView(source KitchenSource, ledger ArrivalLedger, restaurantID string, opts KitchenOptions, log *logger.Logger) *KitchenView {
	if opts.DelayAlertMinutes <= 0 {
		opts.DelayAlertMinutes = DefaultDelayAlertMinutes
	}
	if opts.BaseEta <= 0 {
		opts.BaseEta = order.DefaultBaseEta
	}
	return &KitchenView{
		Source:       source,
		Ledger:       ledger,
		RestaurantID: restaurantID,
		Options:      opts,
		Logger:       log,
		seen:         newTracker(),
		now:          time.Now,
	}
}

func (v *KitchenView) statuses() []string {
	if v.Options.History {
		return []string{models.OrderReady}
	}
	return []string{models.OrderReceived, models.OrderPreparing}
}

func (v *KitchenView) Refresh(ctx context.Context) ([]Frame, error) {
	now := v.now()
	orders, err := v.Source.KitchenOrders(ctx, v.RestaurantID, utils.StartOfDay(now), v.statuses())
	if err != nil {
		return nil, utils.Internal("failed to load kitchen orders", err)
	}
	SortKitchenOrders(orders, v.Options.History)

	snap := KitchenSnapshot{
		RestaurantID: v.RestaurantID,
		History:      v.Options.History,
		Orders:       make([]KitchenOrder, 0, len(orders)),
		GeneratedAt:  now.UTC(),
	}
	tracked := make([]string, 0, len(orders))
	var received []string
	for _, o := range orders {
		ko := v.decorate(o, now)
		if ko.Delayed {
			snap.DelayedCount++
		}
		snap.Orders = append(snap.Orders, ko)
		tracked = append(tracked, o.ID)
		if o.Status == models.OrderReceived {
			received = append(received, o.ID)
		}
	}

	frames := []Frame{{Event: EventSnapshot, Data: snap}}
	if fresh := v.seen.observe(tracked, received); len(fresh) > 0 {
		frames = append(frames, Frame{Event: EventArrival, Data: Arrivals{OrderIDs: fresh, Print: v.claim(ctx, fresh)}})
	}
	return frames, nil
}

func (v *KitchenView) decorate(o models.Order, now time.Time) KitchenOrder {
	stats := order.StatsOf(o.Lines)
	elapsed := ElapsedMinutes(o.PlacedAt, now)
	return KitchenOrder{
		Order:          o,
		ElapsedMinutes: elapsed,
		Delayed:        !v.Options.History && o.Status != models.OrderReady && elapsed >= v.Options.DelayAlertMinutes,
		SuggestedEta:   order.SuggestedEta(v.Options.BaseEta, stats),
		Units:          stats.Units,
	}
}

// claim returns the ids this view won. When the ledger fails every arrival is
// printed; a duplicate ticket beats a missing one.
func (v *KitchenView) claim(ctx context.Context, ids []string) []string {
	if v.Ledger == nil {
		return ids
	}
	won := make([]string, 0, len(ids))
	for _, id := range ids {
		ok, err := v.Ledger.Claim(ctx, v.RestaurantID, id)
		if err != nil {
			v.Logger.Warn("LIVE", fmt.Sprintf("arrival ledger unavailable, printing %s anyway: %v", id, err))
			ok = true
		}
		if ok {
			won = append(won, id)
		}
	}
	return won
}

// ElapsedMinutes rounds to the nearest minute and never goes negative.
func ElapsedMinutes(placedAt, now time.Time) int {
	m := int(math.Round(now.Sub(placedAt).Minutes()))
	if m < 0 {
		return 0
	}
	return m
}

// SortKitchenOrders orders the live queue by status rank then oldest first.
// History is newest first. The sort is stable.
func SortKitchenOrders(list []models.Order, history bool) {
	sort.SliceStable(list, func(i, j int) bool {
		if history {
			return list[i].PlacedAt.After(list[j].PlacedAt)
		}
		ri, rj := order.StatusRank(list[i].Status), order.StatusRank(list[j].Status)
		if ri != rj {
			return ri < rj
		}
		return list[i].PlacedAt.Before(list[j].PlacedAt)
	})
}
