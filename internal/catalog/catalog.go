package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-ordering/internal/feed"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"

	"golang.org/x/sync/errgroup"
)

var (
	ErrItemNotFound      = utils.NotFound("item not found")
	ErrMissingItemID     = utils.Invalid("item id is required")
	ErrMissingRestaurant = utils.Invalid("restaurant id is required")
)

type Store interface {
	Categories(ctx context.Context, restaurantID string) ([]models.Category, error)
	Subcategories(ctx context.Context, restaurantID string) ([]models.Subcategory, error)
	Items(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
	Accompaniments(ctx context.Context, restaurantID string) ([]models.Accompaniment, error)
	PizzaSizes(ctx context.Context, restaurantID string) ([]models.PizzaSize, error)
	ActivePromotions(ctx context.Context, restaurantID string, now time.Time) ([]models.Promotion, error)
	ServiceHours(ctx context.Context, restaurantID string) ([]models.ServiceHours, error)
	SetItemAvailability(ctx context.Context, restaurantID, itemID string, available bool) (bool, error)
}

// Snapshot is one read of a restaurant's menu.
type Snapshot struct {
	RestaurantID   string                 `json:"restaurantId"`
	Categories     []models.Category      `json:"categories"`
	Subcategories  []models.Subcategory   `json:"subcategories"`
	Items          []models.MenuItem      `json:"items"`
	Accompaniments []models.Accompaniment `json:"accompaniments"`
	PizzaSizes     []models.PizzaSize     `json:"pizzaSizes"`
	Promotions     []models.Promotion     `json:"promotions"`
	ServiceHours   []models.ServiceHours  `json:"serviceHours"`
	LoadedAt       time.Time              `json:"loadedAt"`
}

func (s *Snapshot) BrunchOpen() bool {
	return IsServiceWindowOpen(s.ServiceHours, models.ServiceTypeBrunch, s.LoadedAt)
}

// EffectivePrice is the item price after its active promotion, for menu display.
func (s *Snapshot) EffectivePrice(item models.MenuItem) int64 {
	return ApplyPromotion(item.Price, ActivePromotionForItem(item.ID, s.Promotions, s.LoadedAt))
}

type Resolver struct {
	Store               Store
	Bus                 feed.Publisher
	DefaultRestaurantID string
	now                 func() time.Time
}

func NewResolver(store Store, bus feed.Publisher, defaultRestaurantID string) *Resolver {
	return &Resolver{Store: store, Bus: bus, DefaultRestaurantID: defaultRestaurantID, now: time.Now}
}

// RestaurantID returns the requested restaurant or the configured default.
func (r *Resolver) RestaurantID(requested string) string {
	if id := strings.TrimSpace(requested); id != "" {
		return id
	}
	return r.DefaultRestaurantID
}

// Load issues the seven catalog reads concurrently. The first failure cancels the rest.
func (r *Resolver) Load(ctx context.Context, restaurantID string) (*Snapshot, error) {
	restaurantID = r.RestaurantID(restaurantID)
	if restaurantID == "" {
		return nil, ErrMissingRestaurant
	}

	now := r.now().UTC()
	snap := &Snapshot{RestaurantID: restaurantID, LoadedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Categories, err = r.Store.Categories(gctx, restaurantID)
		return wrap("categories", err)
	})
	g.Go(func() (err error) {
		snap.Subcategories, err = r.Store.Subcategories(gctx, restaurantID)
		return wrap("subcategories", err)
	})
	g.Go(func() (err error) {
		snap.Items, err = r.Store.Items(gctx, restaurantID)
		return wrap("items", err)
	})
	g.Go(func() (err error) {
		snap.Accompaniments, err = r.Store.Accompaniments(gctx, restaurantID)
		return wrap("accompaniments", err)
	})
	g.Go(func() (err error) {
		snap.PizzaSizes, err = r.Store.PizzaSizes(gctx, restaurantID)
		return wrap("pizza sizes", err)
	})
	g.Go(func() (err error) {
		snap.Promotions, err = r.Store.ActivePromotions(gctx, restaurantID, now)
		return wrap("promotions", err)
	})
	g.Go(func() (err error) {
		snap.ServiceHours, err = r.Store.ServiceHours(gctx, restaurantID)
		return wrap("service hours", err)
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, utils.Unavailable("catalog load timed out, retry", ctx.Err())
		}
		return nil, utils.Internal("failed to load catalog", err)
	}
	return snap, nil
}

func (r *Resolver) SetItemAvailability(ctx context.Context, restaurantID, itemID string, available bool) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return ErrMissingItemID
	}

	updated, err := r.Store.SetItemAvailability(ctx, restaurantID, itemID, available)
	if err != nil {
		return utils.Internal("failed to update item availability", err)
	}
	if !updated {
		return ErrItemNotFound
	}

	if r.Bus != nil {
		r.Bus.Publish(feed.ChangeEvent{
			Table:        feed.TableItems,
			Op:           feed.OpUpdate,
			RestaurantID: restaurantID,
			RecordID:     itemID,
		})
	}
	return nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
