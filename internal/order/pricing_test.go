package order

import (
	"math"
	"testing"
	"time"

	"ms-ordering/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(v float64) *float64 { return &v }

func testMenu() Menu {
	viandes := &models.Category{Slug: models.SlugViandes}
	pizzas := &models.Category{Slug: models.SlugPizzas}
	drinks := &models.Category{Slug: "boissons"}
	return Menu{
		Items: map[string]models.MenuItem{
			"steak": {ID: "steak", Price: 2400, Available: true, RequiresAccompaniment: true, Category: viandes},
			"pizza": {ID: "pizza", Price: 1100, Available: true, Category: pizzas},
			"soda":  {ID: "soda", Price: 300, Available: true, RequiresAccompaniment: true, Category: drinks},
			"gone":  {ID: "gone", Price: 900, Available: false, Category: pizzas},
		},
		Accompaniments: map[string]models.Accompaniment{
			"fries": {ID: "fries", Supplement: 250},
		},
		PizzaSizes: map[string]models.PizzaSize{
			"pizza-L": {ID: "pizza-L", ItemID: "pizza", Price: 1500},
			"other-L": {ID: "other-L", ItemID: "calzone", Price: 1600},
		},
	}
}

func TestPriceCart(t *testing.T) {
	now := time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC)

	cart, err := PriceCart([]models.OrderLineRequest{
		{ItemID: "pizza", Quantity: qty(2), PizzaSizeID: "pizza-L"},
		{ItemID: "steak", Quantity: qty(1.9), AccompanimentID: "fries", Note: "  saignant "},
		{ItemID: "soda"},
	}, testMenu(), now)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 3)
	assert.Equal(t, int64(1500), cart.Lines[0].UnitPrice)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, "pizza-L", *cart.Lines[0].PizzaSizeID)
	assert.Equal(t, int64(250), cart.Lines[1].Supplement)
	assert.Equal(t, 1, cart.Lines[1].Quantity)
	assert.Equal(t, "saignant", *cart.Lines[1].Note)
	assert.Nil(t, cart.Lines[2].Note)
	assert.Equal(t, int64(2*1500+2400+250+300), cart.Total)
	assert.Equal(t, LineStats{Units: 4, Lines: 3, HasPizza: true, HasNotes: true}, cart.Stats)
}

func TestPriceCartRejections(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		line models.OrderLineRequest
		want error
	}{
		{"unknown item", models.OrderLineRequest{ItemID: "nope"}, ErrItemUnavailable},
		{"unavailable item", models.OrderLineRequest{ItemID: "gone"}, ErrItemUnavailable},
		{"side missing", models.OrderLineRequest{ItemID: "steak"}, ErrAccompanimentRequired},
		{"unknown side counts as none", models.OrderLineRequest{ItemID: "steak", AccompanimentID: "salad"}, ErrAccompanimentRequired},
		{"side on pizza", models.OrderLineRequest{ItemID: "pizza", AccompanimentID: "fries"}, ErrAccompanimentNotAllowed},
		{"side on flagged item outside side categories", models.OrderLineRequest{ItemID: "soda", AccompanimentID: "fries"}, ErrAccompanimentNotAllowed},
		{"size of another item", models.OrderLineRequest{ItemID: "pizza", PizzaSizeID: "other-L"}, ErrInvalidPizzaSize},
		{"unknown size", models.OrderLineRequest{ItemID: "pizza", PizzaSizeID: "pizza-XXL"}, ErrInvalidPizzaSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := PriceCart([]models.OrderLineRequest{{ItemID: "pizza"}, tt.line}, testMenu(), now)
			assert.Nil(t, cart)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPriceCartAppliesPromotionAtPricingTime(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	menu := testMenu()
	menu.Promotions = []models.Promotion{
		{ItemID: "steak", Type: models.PromotionPercent, Value: 25, Active: true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)},
	}
	line := []models.OrderLineRequest{{ItemID: "steak", AccompanimentID: "fries"}}

	during, err := PriceCart(line, menu, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), during.Lines[0].UnitPrice)
	assert.Equal(t, int64(1800+250), during.Total, "supplement is never discounted")

	after, err := PriceCart(line, menu, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2400), after.Lines[0].UnitPrice)
}

func TestPriceCartIsDeterministic(t *testing.T) {
	now := time.Now()
	lines := []models.OrderLineRequest{{ItemID: "pizza", Quantity: qty(3), PizzaSizeID: "pizza-L"}, {ItemID: "steak", AccompanimentID: "fries"}}
	first, err := PriceCart(lines, testMenu(), now)
	require.NoError(t, err)
	second, err := PriceCart(lines, testMenu(), now)
	require.NoError(t, err)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestNormalizeQuantity(t *testing.T) {
	assert.Equal(t, 1, NormalizeQuantity(nil))
	assert.Equal(t, 1, NormalizeQuantity(qty(0)))
	assert.Equal(t, 1, NormalizeQuantity(qty(-4)))
	assert.Equal(t, 1, NormalizeQuantity(qty(0.5)))
	assert.Equal(t, 1, NormalizeQuantity(qty(math.NaN())))
	assert.Equal(t, 3, NormalizeQuantity(qty(3.99)))
}

func TestAccompanimentApplies(t *testing.T) {
	for _, slug := range []string{models.SlugViandes, models.SlugVolailles, models.SlugPoissons} {
		assert.True(t, AccompanimentApplies(models.MenuItem{RequiresAccompaniment: true, Category: &models.Category{Slug: slug}}), slug)
		assert.False(t, AccompanimentApplies(models.MenuItem{RequiresAccompaniment: false, Category: &models.Category{Slug: slug}}), slug)
	}
	assert.False(t, AccompanimentApplies(models.MenuItem{RequiresAccompaniment: true, Category: &models.Category{Slug: models.SlugBrunch}}))
	assert.False(t, AccompanimentApplies(models.MenuItem{RequiresAccompaniment: true}))
}
