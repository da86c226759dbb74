package analytics

import (
	"strings"
	"testing"
	"time"

	"ms-ordering/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateEmptyWindow(t *testing.T) {
	s := Aggregate(Window{}, nil, nil, nil, 3)

	assert.Zero(t, s.Revenue)
	assert.Zero(t, s.OrderCount)
	assert.Zero(t, s.AverageTicket)
	assert.Zero(t, s.AverageRating)
	assert.Empty(t, s.TopItems)
	assert.NotNil(t, s.TopItems)
	assert.NotNil(t, s.Daily)
}

func TestAggregate(t *testing.T) {
	w, err := DateRange("2026-10-01", "2026-10-02")
	require.NoError(t, err)

	orders := []models.Order{
		{Total: 3000, PlacedAt: time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)},
		{Total: 1500, PlacedAt: time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC)},
		{Total: 1500, PlacedAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)},
	}
	ratings := []models.Rating{{Score: 5}, {Score: 4}}
	sales := []ItemSale{{Name: "Thieboudienne", Quantity: 2}, {Name: "Yassa", Quantity: 2}, {Name: "Bissap", Quantity: 6}}

	s := Aggregate(w, orders, sales, ratings, 2)
	assert.Equal(t, int64(6000), s.Revenue)
	assert.Equal(t, 3, s.OrderCount)
	assert.Equal(t, 2000.0, s.AverageTicket)
	assert.Equal(t, 4.5, s.AverageRating)
	assert.Equal(t, 2, s.RatingCount)
	assert.Equal(t, []ItemSale{{Name: "Bissap", Quantity: 6}, {Name: "Thieboudienne", Quantity: 2}}, s.TopItems)
	assert.Equal(t, []DailyRevenue{
		{Date: "2026-10-01", Revenue: 3000, Orders: 2},
		{Date: "2026-10-02", Revenue: 3000, Orders: 1},
	}, s.Daily)
}

func TestTopItems(t *testing.T) {
	sales := []ItemSale{
		{Name: "Pizza", Quantity: 2},
		{Name: "Burger", Quantity: 3},
		{Name: "Pizza", Quantity: 1},
		{Name: "", Quantity: 9},
		{Name: "Alloco", Quantity: 3},
	}

	assert.Equal(t, []ItemSale{{Name: "Alloco", Quantity: 3}, {Name: "Burger", Quantity: 3}, {Name: "Pizza", Quantity: 3}}, TopItems(sales, 5))
	assert.Len(t, TopItems(sales, 1), 1)
	assert.Empty(t, TopItems(sales, 0))
	assert.Empty(t, TopItems(nil, 3))
}

func TestWindows(t *testing.T) {
	now := time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), Today(now).From)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), ThisWeek(now).From)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), ThisMonth(now).From)
	assert.Equal(t, now, ThisMonth(now).To)

	sunday := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), ThisWeek(sunday).From)

	day := UTCDay(now)
	assert.Equal(t, time.Date(2026, 10, 14, 23, 59, 59, int(999*time.Millisecond), time.UTC), day.To)
}

func TestDateRange(t *testing.T) {
	w, err := DateRange("2026-10-01", "2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, time.Date(2026, 10, 1, 23, 59, 59, int(999*time.Millisecond), time.UTC), w.To)

	for _, tc := range [][2]string{
		{"", "2026-10-01"},
		{"2026-10-01", "tomorrow"},
		{"2026-10-05", "2026-10-01"},
		{"01/10/2026", "2026-10-02"},
	} {
		_, err := DateRange(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidRange, tc)
	}
}

func TestReportText(t *testing.T) {
	s := Summary{
		Revenue:       125000,
		OrderCount:    12,
		AverageTicket: 10416.67,
		AverageRating: 4.333,
		TopItems:      []ItemSale{{Name: "Dibi", Quantity: 7}, {Name: "Attiéké", Quantity: 4}},
	}
	text := ReportText("2026-10-14", s)
	lines := strings.Split(text, "\n")

	require.Len(t, lines, 6)
	assert.Equal(t, "Rapport journalier - 2026-10-14", lines[0])
	assert.Equal(t, "CA: 125 000 F CFA", lines[1])
	assert.Equal(t, "Commandes: 12", lines[2])
	assert.Equal(t, "Ticket moyen: 10 417 F CFA", lines[3])
	assert.Equal(t, "Note moyenne: 4.33/5", lines[4])
	assert.Equal(t, "Top ventes: Dibi (7) · Attiéké (4)", lines[5])

	empty := ReportText("2026-10-14", Summary{})
	assert.Contains(t, empty, "Top ventes: Aucune vente enregistrée")
	assert.Contains(t, empty, "CA: 0 F CFA")
}

func TestFormatXOF(t *testing.T) {
	assert.Equal(t, "0 F CFA", FormatXOF(0))
	assert.Equal(t, "999 F CFA", FormatXOF(999))
	assert.Equal(t, "1 000 F CFA", FormatXOF(999.5))
	assert.Equal(t, "1 234 567 F CFA", FormatXOF(1234567))
	assert.Equal(t, "-12 500 F CFA", FormatXOF(-12500))
}
