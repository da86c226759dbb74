package analytics

import (
	"sort"
	"time"

	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

// Window is an inclusive time range.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func Today(now time.Time) Window     { return Window{From: utils.StartOfDay(now), To: now} }
func ThisWeek(now time.Time) Window  { return Window{From: utils.StartOfWeek(now), To: now} }
func ThisMonth(now time.Time) Window { return Window{From: utils.StartOfMonth(now), To: now} }

// UTCDay covers the whole UTC day of now.
func UTCDay(now time.Time) Window {
	from, to := utils.UTCDayBounds(now)
	return Window{From: from, To: to}
}

const dateLayout = "2006-01-02"

// DateRange parses YYYY-MM-DD bounds into [from 00:00:00.000, to 23:59:59.999] UTC.
func DateRange(from, to string) (Window, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return Window{}, ErrInvalidRange
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return Window{}, ErrInvalidRange
	}
	if end.Before(start) {
		return Window{}, ErrInvalidRange
	}
	return Window{From: start, To: end.Add(24*time.Hour - time.Millisecond)}, nil
}

type ItemSale struct {
	Name     string `bun:"name" json:"name"`
	Quantity int    `bun:"quantity" json:"quantity"`
}

type DailyRevenue struct {
	Date    string `json:"date"`
	Revenue int64  `json:"revenue"`
	Orders  int    `json:"orders"`
}

type Summary struct {
	Window        Window         `json:"window"`
	Revenue       int64          `json:"revenue"`
	OrderCount    int            `json:"order_count"`
	AverageTicket float64        `json:"average_ticket"`
	AverageRating float64        `json:"average_rating"`
	RatingCount   int            `json:"rating_count"`
	TopItems      []ItemSale     `json:"top_items"`
	Daily         []DailyRevenue `json:"daily"`
}

// Aggregate rolls orders, item sales and ratings of one window into a
// summary. Averages are zero when there is nothing to average.
func Aggregate(w Window, orders []models.Order, sales []ItemSale, ratings []models.Rating, topN int) Summary {
	s := Summary{Window: w, TopItems: TopItems(sales, topN), Daily: []DailyRevenue{}}

	days := map[string]*DailyRevenue{}
	for _, o := range orders {
		s.Revenue += o.Total
		s.OrderCount++

		key := o.PlacedAt.In(w.From.Location()).Format(dateLayout)
		d, ok := days[key]
		if !ok {
			d = &DailyRevenue{Date: key}
			days[key] = d
		}
		d.Revenue += o.Total
		d.Orders++
	}
	if s.OrderCount > 0 {
		s.AverageTicket = float64(s.Revenue) / float64(s.OrderCount)
	}

	var scoreSum int
	for _, r := range ratings {
		scoreSum += r.Score
	}
	if len(ratings) > 0 {
		s.RatingCount = len(ratings)
		s.AverageRating = float64(scoreSum) / float64(len(ratings))
	}

	for _, d := range days {
		s.Daily = append(s.Daily, *d)
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Date < s.Daily[j].Date })
	return s
}

// TopItems merges sales by name and keeps the n best sellers, ties by name.
// n <= 0 keeps none.
func TopItems(sales []ItemSale, n int) []ItemSale {
	if n <= 0 {
		return []ItemSale{}
	}
	byName := map[string]int{}
	for _, s := range sales {
		if s.Name == "" {
			continue
		}
		byName[s.Name] += s.Quantity
	}

	top := make([]ItemSale, 0, len(byName))
	for name, qty := range byName {
		top = append(top, ItemSale{Name: name, Quantity: qty})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}
