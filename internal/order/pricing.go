package order

import (
	"math"
	"strings"
	"time"

	"ms-ordering/internal/catalog"
	"ms-ordering/internal/models"

	"github.com/google/uuid"
)

var sideDishSlugs = map[string]bool{
	models.SlugViandes:   true,
	models.SlugVolailles: true,
	models.SlugPoissons:  true,
}

// Menu is the slice of the catalog a cart references, keyed by id.
type Menu struct {
	Items          map[string]models.MenuItem
	Accompaniments map[string]models.Accompaniment
	PizzaSizes     map[string]models.PizzaSize
	Promotions     []models.Promotion
}

// PricedCart is a validated cart with frozen prices.
type PricedCart struct {
	Lines []*models.OrderItem
	Total int64
	Stats LineStats
}

// AccompanimentApplies is true for items flagged for a side in a category served with one.
func AccompanimentApplies(item models.MenuItem) bool {
	if !item.RequiresAccompaniment || item.Category == nil {
		return false
	}
	return sideDishSlugs[item.Category.Slug]
}

// NormalizeQuantity floors the requested quantity; anything below one becomes one.
func NormalizeQuantity(q *float64) int {
	if q == nil || math.IsNaN(*q) || *q < 1 {
		return 1
	}
	if math.IsInf(*q, 1) || *q > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(*q))
}

// PriceCart validates every line in order and stops at the first failure.
// Promotions are evaluated against now.
func PriceCart(lines []models.OrderLineRequest, menu Menu, now time.Time) (*PricedCart, error) {
	cart := &PricedCart{Lines: make([]*models.OrderItem, 0, len(lines))}

	for _, line := range lines {
		item, ok := menu.Items[strings.TrimSpace(line.ItemID)]
		if !ok || !item.Available {
			return nil, ErrItemUnavailable
		}

		quantity := NormalizeQuantity(line.Quantity)

		var side *models.Accompaniment
		if id := strings.TrimSpace(line.AccompanimentID); id != "" {
			if a, found := menu.Accompaniments[id]; found {
				side = &a
			}
		}
		applies := AccompanimentApplies(item)
		if side != nil && !applies {
			return nil, ErrAccompanimentNotAllowed
		}
		if applies && side == nil {
			return nil, ErrAccompanimentRequired
		}

		var size *models.PizzaSize
		if id := strings.TrimSpace(line.PizzaSizeID); id != "" {
			s, found := menu.PizzaSizes[id]
			if !found || s.ItemID != item.ID {
				return nil, ErrInvalidPizzaSize
			}
			size = &s
		}

		base := item.Price
		if size != nil {
			base = size.Price
		}
		unit := catalog.ApplyPromotion(base, catalog.ActivePromotionForItem(item.ID, menu.Promotions, now))

		var supplement int64
		if side != nil {
			supplement = side.Supplement
		}

		orderLine := &models.OrderItem{
			ID:         uuid.NewString(),
			ItemID:     item.ID,
			Quantity:   quantity,
			UnitPrice:  unit,
			Supplement: supplement,
		}
		if note := strings.TrimSpace(line.Note); note != "" {
			orderLine.Note = &note
		}
		if side != nil {
			orderLine.AccompanimentID = &side.ID
		}
		if size != nil {
			orderLine.PizzaSizeID = &size.ID
		}

		cart.Total += (unit + supplement) * int64(quantity)
		cart.Lines = append(cart.Lines, orderLine)
	}

	cart.Stats = StatsOf(cart.Lines)
	return cart, nil
}
