package order

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ms-ordering/internal/feed"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/tables"
	"ms-ordering/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidPayload          = utils.Invalid("invalid order payload")
	ErrTableNotFound           = utils.NotFound("table not found or QR code disabled")
	ErrItemUnavailable         = utils.Conflict("a selected item is unavailable")
	ErrAccompanimentNotAllowed = utils.Invalid("accompaniments are only available for meat, poultry and fish")
	ErrAccompanimentRequired   = utils.Invalid("an accompaniment is required for meat, poultry and fish")
	ErrInvalidPizzaSize        = utils.Invalid("invalid pizza size")
	ErrInvalidStatus           = utils.Invalid("invalid status")
	ErrInvalidEta              = utils.Invalid("invalid eta")
	ErrOrderNotFound           = utils.NotFound("order not found")
	ErrInvalidTableAccess      = utils.Invalid("invalid table or access parameters")
	ErrSessionExpired          = utils.Forbidden("invalid or expired QR session")
)

const (
	ActiveOrdersLimit = 25
	HistoryIDsLimit   = 50
)

var historyIDPattern = regexp.MustCompile(`(?i)^[0-9a-f-]{8,64}$`)

type TableResolver interface {
	ResolveByAccessToken(ctx context.Context, number float64, token, restaurantID string) tables.Resolution
}

// MenuReader is the batch side of the catalog used while pricing a cart.
type MenuReader interface {
	ItemsByIDs(ctx context.Context, restaurantID string, ids []string) ([]models.MenuItem, error)
	AccompanimentsByIDs(ctx context.Context, restaurantID string, ids []string) ([]models.Accompaniment, error)
	PizzaSizesByIDs(ctx context.Context, ids []string) ([]models.PizzaSize, error)
	ActivePromotions(ctx context.Context, restaurantID string, now time.Time) ([]models.Promotion, error)
}

// Changes is a partial order update. EtaSet with a nil Eta clears the ETA.
type Changes struct {
	Status    *string
	EtaSet    bool
	Eta       *int
	UpdatedAt time.Time
}

type Store interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	InsertItems(ctx context.Context, items []*models.OrderItem) error
	DeleteOrder(ctx context.Context, id string) error
	// GetOrder loads an order with its lines and table; nil, nil when absent.
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// UpdateOrder applies changes to the order of restaurantID and returns it; nil, nil when no row matched.
	UpdateOrder(ctx context.Context, restaurantID, id string, changes Changes) (*models.Order, error)
	ActiveOrdersForTable(ctx context.Context, tableID string, limit int) ([]models.Order, error)
	OrdersForTable(ctx context.Context, tableID string, ids []string) ([]models.Order, error)
}

// EventPublisher streams order lifecycle events to other services.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderUpdated(ctx context.Context, order *models.Order) error
}

type Config struct {
	DefaultRestaurantID string
	BaseEta             int
}

type OrderService struct {
	Store  Store
	Tables TableResolver
	Menu   MenuReader
	Bus    feed.Publisher
	Events EventPublisher
	Logger *logger.Logger
	Config Config
	now    func() time.Time
}

func NewOrderService(store Store, tables TableResolver, menu MenuReader, bus feed.Publisher, events EventPublisher, log *logger.Logger, cfg Config) *OrderService {
	if cfg.BaseEta <= 0 {
		cfg.BaseEta = DefaultBaseEta
	}
	return &OrderService{
		Store:  store,
		Tables: tables,
		Menu:   menu,
		Bus:    bus,
		Events: events,
		Logger: log,
		Config: cfg,
		now:    time.Now,
	}
}

func (s *OrderService) restaurantID(requested string) string {
	if id := strings.TrimSpace(requested); id != "" {
		return id
	}
	return s.Config.DefaultRestaurantID
}

// ---------------- PLACE ORDER ----------------

// PlaceOrder prices the cart against live menu state and persists it. Nothing
// is written until every line has been validated.
func (s *OrderService) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResponse, error) {
	if !tables.PositiveNumber(req.TableNumber) || strings.TrimSpace(req.AccessToken) == "" || len(req.Lines) == 0 {
		return nil, ErrInvalidPayload
	}

	res := s.Tables.ResolveByAccessToken(ctx, req.TableNumber, req.AccessToken, s.restaurantID(req.RestaurantID))
	if res.Err != nil {
		return nil, utils.Internal("failed to resolve table", res.Err)
	}
	if !res.Found() {
		return nil, ErrTableNotFound
	}
	table := res.Table

	now := s.now().UTC()
	menu, err := s.loadMenu(ctx, table.RestaurantID, req.Lines, now)
	if err != nil {
		return nil, utils.Internal("failed to load menu", err)
	}

	cart, err := PriceCart(req.Lines, *menu, now)
	if err != nil {
		return nil, err
	}
	eta := InitialEta(cart.Stats)

	order := &models.Order{
		ID:           uuid.NewString(),
		TableID:      table.ID,
		RestaurantID: table.RestaurantID,
		Status:       models.OrderReceived,
		PlacedAt:     now,
		Total:        cart.Total,
		EtaMinutes:   &eta,
		UpdatedAt:    now,
	}
	if err := s.Store.CreateOrder(ctx, order); err != nil {
		return nil, utils.Internal("failed to create order", err)
	}

	for _, line := range cart.Lines {
		line.OrderID = order.ID
	}
	if err := s.Store.InsertItems(ctx, cart.Lines); err != nil {
		s.compensate(order.ID, err)
		return nil, utils.Internal("failed to save order lines", err)
	}

	s.Logger.LogOrder("CREATED", order.ID, fmt.Sprintf("table=%d total=%d eta=%d lines=%d", table.Number, order.Total, eta, len(cart.Lines)))
	order.Lines = cart.Lines
	s.publish(ctx, feed.OpInsert, order)

	return &models.OrderResponse{OrderID: order.ID, Total: order.Total, EtaMinutes: eta}, nil
}

// compensate removes an order whose lines could not be written. A failed
// delete is logged and left for manual cleanup.
func (s *OrderService) compensate(orderID string, cause error) {
	s.Logger.Warn("ORDER", fmt.Sprintf("line insert failed for %s, deleting order: %v", orderID, cause))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Store.DeleteOrder(ctx, orderID); err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("compensation failed, orphan order %s: %v", orderID, err))
	}
}

// loadMenu fetches the referenced items, sides, sizes and the live promotions concurrently.
func (s *OrderService) loadMenu(ctx context.Context, restaurantID string, lines []models.OrderLineRequest, now time.Time) (*Menu, error) {
	itemIDs := distinct(lines, func(l models.OrderLineRequest) string { return l.ItemID })
	sideIDs := distinct(lines, func(l models.OrderLineRequest) string { return l.AccompanimentID })
	sizeIDs := distinct(lines, func(l models.OrderLineRequest) string { return l.PizzaSizeID })

	var (
		items  []models.MenuItem
		sides  []models.Accompaniment
		sizes  []models.PizzaSize
		promos []models.Promotion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		items, err = s.Menu.ItemsByIDs(gctx, restaurantID, itemIDs)
		return err
	})
	g.Go(func() (err error) {
		sides, err = s.Menu.AccompanimentsByIDs(gctx, restaurantID, sideIDs)
		return err
	})
	g.Go(func() (err error) {
		sizes, err = s.Menu.PizzaSizesByIDs(gctx, sizeIDs)
		return err
	})
	g.Go(func() (err error) {
		promos, err = s.Menu.ActivePromotions(gctx, restaurantID, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	menu := &Menu{
		Items:          make(map[string]models.MenuItem, len(items)),
		Accompaniments: make(map[string]models.Accompaniment, len(sides)),
		PizzaSizes:     make(map[string]models.PizzaSize, len(sizes)),
		Promotions:     promos,
	}
	for _, it := range items {
		menu.Items[it.ID] = it
	}
	for _, a := range sides {
		menu.Accompaniments[a.ID] = a
	}
	for _, ps := range sizes {
		menu.PizzaSizes[ps.ID] = ps
	}
	return menu, nil
}

func distinct(lines []models.OrderLineRequest, key func(models.OrderLineRequest) string) []string {
	seen := make(map[string]bool, len(lines))
	var out []string
	for _, l := range lines {
		k := strings.TrimSpace(key(l))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// ---------------- READ / UPDATE ----------------

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrOrderNotFound
	}
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, utils.Internal("failed to load order", err)
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// UpdateOrder applies a kitchen edit. Moving an order without ETA into
// preparing assigns the suggested ETA. Concurrent edits: last write wins.
func (s *OrderService) UpdateOrder(ctx context.Context, restaurantID, id string, upd models.OrderUpdate) error {
	if upd.Status != nil && !ValidStatus(*upd.Status) {
		return ErrInvalidStatus
	}

	changes := Changes{Status: upd.Status, UpdatedAt: s.now().UTC()}
	if upd.EtaSet {
		changes.EtaSet = true
		if upd.EtaMinutes != nil {
			eta, ok := ClampExplicitEta(*upd.EtaMinutes)
			if !ok {
				return ErrInvalidEta
			}
			changes.Eta = &eta
		}
	}

	if upd.Status != nil && *upd.Status == models.OrderPreparing && !upd.EtaSet {
		current, err := s.Store.GetOrder(ctx, id)
		if err != nil {
			return utils.Internal("failed to load order", err)
		}
		if current == nil || current.RestaurantID != restaurantID {
			return ErrOrderNotFound
		}
		if current.EtaMinutes == nil || *current.EtaMinutes == 0 {
			eta := SuggestedEta(s.Config.BaseEta, StatsOf(current.Lines))
			changes.EtaSet = true
			changes.Eta = &eta
		}
	}

	updated, err := s.Store.UpdateOrder(ctx, restaurantID, id, changes)
	if err != nil {
		return utils.Internal("failed to update order", err)
	}
	if updated == nil {
		return ErrOrderNotFound
	}

	s.Logger.LogOrder("UPDATED", updated.ID, fmt.Sprintf("status=%s eta=%s", updated.Status, formatEta(updated.EtaMinutes)))
	s.publish(ctx, feed.OpUpdate, updated)
	return nil
}

func formatEta(eta *int) string {
	if eta == nil {
		return "none"
	}
	return fmt.Sprintf("%dmin", *eta)
}

func (s *OrderService) publish(ctx context.Context, op feed.Op, o *models.Order) {
	if s.Bus != nil {
		s.Bus.Publish(feed.ChangeEvent{
			Table:        feed.TableOrders,
			Op:           op,
			RestaurantID: o.RestaurantID,
			RecordID:     o.ID,
			TableID:      o.TableID,
		})
	}
	if s.Events == nil {
		return
	}

	var err error
	if op == feed.OpInsert {
		err = s.Events.PublishOrderCreated(ctx, o)
	} else {
		err = s.Events.PublishOrderUpdated(ctx, o)
	}
	if err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("order event for %s not published: %v", o.ID, err))
	}
}

// ---------------- CUSTOMER VIEW ----------------

type ClientOrdersQuery struct {
	TableNumber  float64
	AccessToken  string
	RestaurantID string
	HistoryIDs   string
}

type TableRef struct {
	ID     string `json:"id"`
	Number int    `json:"numero"`
}

// ClientOrders is what a diner's tracking page shows.
type ClientOrders struct {
	Table         TableRef       `json:"table"`
	ActiveOrders  []models.Order `json:"activeOrders"`
	HistoryOrders []models.Order `json:"historyOrders"`
}

// ParseHistoryIDs keeps the well-formed ids of a comma separated list, at most 50.
func ParseHistoryIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if !historyIDPattern.MatchString(id) {
			continue
		}
		ids = append(ids, id)
		if len(ids) == HistoryIDsLimit {
			break
		}
	}
	return ids
}

// ClientOrders returns the table's active orders and the requested past
// orders, restricted to the same table.
func (s *OrderService) ClientOrders(ctx context.Context, q ClientOrdersQuery) (*ClientOrders, error) {
	table, err := s.ResolveTableSession(ctx, q.TableNumber, q.AccessToken, q.RestaurantID)
	if err != nil {
		return nil, err
	}

	active, err := s.Store.ActiveOrdersForTable(ctx, table.ID, ActiveOrdersLimit)
	if err != nil {
		return nil, utils.Internal("failed to load active orders", err)
	}

	history := []models.Order{}
	if ids := ParseHistoryIDs(q.HistoryIDs); len(ids) > 0 {
		if history, err = s.Store.OrdersForTable(ctx, table.ID, ids); err != nil {
			return nil, utils.Internal("failed to load order history", err)
		}
	}
	if active == nil {
		active = []models.Order{}
	}

	return &ClientOrders{
		Table:         TableRef{ID: table.ID, Number: table.Number},
		ActiveOrders:  active,
		HistoryOrders: history,
	}, nil
}

// ResolveTableSession checks a diner's table number and QR token. Malformed
// input is 400, an unknown or disabled table 403.
func (s *OrderService) ResolveTableSession(ctx context.Context, number float64, token, restaurantID string) (*models.Table, error) {
	if !tables.PositiveNumber(number) || strings.TrimSpace(token) == "" {
		return nil, ErrInvalidTableAccess
	}

	res := s.Tables.ResolveByAccessToken(ctx, number, token, s.restaurantID(restaurantID))
	if res.Err != nil {
		return nil, utils.Internal("failed to resolve table", res.Err)
	}
	if !res.Found() {
		return nil, ErrSessionExpired
	}
	return res.Table, nil
}
