package live

import (
	"context"
	"time"

	"ms-ordering/internal/calls"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type CallSource interface {
	OpenCalls(ctx context.Context, restaurantID string) ([]models.ServerCall, error)
}

type FloorSnapshot struct {
	RestaurantID string              `json:"restaurant_id"`
	Calls        []models.ServerCall `json:"calls"`
	ReadyOrders  []models.Order      `json:"ready_orders"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

type CallAlert struct {
	Calls []models.ServerCall `json:"calls"`
}

type ReadyAlert struct {
	OrderIDs []string `json:"order_ids"`
}

// FloorView is what waiters and the kitchen watch for table calls. When
// Orders is set it also carries today's ready orders and announces new ones.
type FloorView struct {
	Calls        CallSource
	Orders       KitchenSource
	RestaurantID string

	pending *tracker
	ready   *tracker
	now     func() time.Time
}

func NewFloorView(callSource CallSource, orders KitchenSource, restaurantID string) *FloorView {
	return &FloorView{
		Calls:        callSource,
		Orders:       orders,
		RestaurantID: restaurantID,
		pending:      newTracker(),
		ready:        newTracker(),
		now:          time.Now,
	}
}

func (v *FloorView) Refresh(ctx context.Context) ([]Frame, error) {
	now := v.now()
	open, err := v.Calls.OpenCalls(ctx, v.RestaurantID)
	if err != nil {
		return nil, utils.Internal("failed to load server calls", err)
	}
	calls.SortCalls(open)

	snap := FloorSnapshot{
		RestaurantID: v.RestaurantID,
		Calls:        open,
		ReadyOrders:  []models.Order{},
		GeneratedAt:  now.UTC(),
	}
	if snap.Calls == nil {
		snap.Calls = []models.ServerCall{}
	}

	var frames []Frame
	if v.Orders != nil {
		ready, err := v.Orders.KitchenOrders(ctx, v.RestaurantID, utils.StartOfDay(now), []string{models.OrderReady})
		if err != nil {
			return nil, utils.Internal("failed to load ready orders", err)
		}
		SortKitchenOrders(ready, true)
		snap.ReadyOrders = ready

		ids := make([]string, len(ready))
		for i, o := range ready {
			ids[i] = o.ID
		}
		if fresh := v.ready.observe(ids, ids); len(fresh) > 0 {
			frames = append(frames, Frame{Event: EventReady, Data: ReadyAlert{OrderIDs: fresh}})
		}
	}

	pendingIDs := make([]string, 0, len(open))
	byID := make(map[string]models.ServerCall, len(open))
	for _, c := range open {
		if c.Status == models.CallPending {
			pendingIDs = append(pendingIDs, c.ID)
			byID[c.ID] = c
		}
	}
	if fresh := v.pending.observe(pendingIDs, pendingIDs); len(fresh) > 0 {
		alert := CallAlert{Calls: make([]models.ServerCall, 0, len(fresh))}
		for _, id := range fresh {
			alert.Calls = append(alert.Calls, byID[id])
		}
		frames = append(frames, Frame{Event: EventCall, Data: alert})
	}

	return append([]Frame{{Event: EventSnapshot, Data: snap}}, frames...), nil
}
