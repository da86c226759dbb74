package catalog

import (
	"strings"
	"time"

	"ms-ordering/internal/models"
)

// ApplyPromotion returns the discounted price, never below zero. Percent
// reductions are computed in whole currency units, truncated.
func ApplyPromotion(base int64, promo *models.Promotion) int64 {
	if promo == nil {
		return base
	}

	var price int64
	switch promo.Type {
	case models.PromotionAmount:
		price = base - promo.Value
	default:
		if promo.Value >= 100 {
			return 0
		}
		price = base - base*promo.Value/100
	}
	if price < 0 {
		return 0
	}
	return price
}

// ActivePromotionForItem returns the first promotion for itemID active at now.
func ActivePromotionForItem(itemID string, promotions []models.Promotion, now time.Time) *models.Promotion {
	for i := range promotions {
		if promotions[i].ItemID == itemID && promotions[i].ActiveAt(now) {
			return &promotions[i]
		}
	}
	return nil
}

// IsServiceWindowOpen is true when no enabled window of serviceType exists,
// or when now falls inside the first enabled one on now's calendar day.
// A window closing before it opens runs past midnight.
func IsServiceWindowOpen(hours []models.ServiceHours, serviceType string, now time.Time) bool {
	for _, h := range hours {
		if h.ServiceType != serviceType || !h.Enabled {
			continue
		}

		open, ok := clockOn(now, h.OpenTime)
		if !ok {
			return true
		}
		closing, ok := clockOn(now, h.CloseTime)
		if !ok {
			return true
		}

		if closing.Before(open) {
			return !now.Before(open) || !now.After(closing)
		}
		return !now.Before(open) && !now.After(closing)
	}
	return true
}

func clockOn(day time.Time, clock string) (time.Time, bool) {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, clock); err == nil {
			y, m, d := day.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, day.Location()), true
		}
	}
	return time.Time{}, false
}
