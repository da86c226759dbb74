package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidRange      = utils.Invalid("invalid date range, expected from/to as YYYY-MM-DD")
	ErrMissingRestaurant = utils.Invalid("restaurant id is required")
)

const OverviewTopItems = 5

type Store interface {
	Orders(ctx context.Context, restaurantID string, w Window) ([]models.Order, error)
	ItemSales(ctx context.Context, restaurantID string, w Window) ([]ItemSale, error)
	Ratings(ctx context.Context, restaurantID string, w Window) ([]models.Rating, error)
}

// Service computes the owner reports.
type Service struct {
	Store     Store
	Notifiers []Notifier
	Logger    *logger.Logger
	now       func() time.Time
}

func NewService(store Store, log *logger.Logger, notifiers ...Notifier) *Service {
	return &Service{Store: store, Notifiers: notifiers, Logger: log, now: time.Now}
}

func (s *Service) Now() time.Time { return s.now() }

// Summarize loads the window's orders, item sales and ratings concurrently and aggregates them.
func (s *Service) Summarize(ctx context.Context, restaurantID string, w Window, topN int) (*Summary, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrMissingRestaurant
	}

	var (
		orders  []models.Order
		sales   []ItemSale
		ratings []models.Rating
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.Store.Orders(gctx, restaurantID, w)
		return err
	})
	g.Go(func() (err error) {
		sales, err = s.Store.ItemSales(gctx, restaurantID, w)
		return err
	})
	g.Go(func() (err error) {
		ratings, err = s.Store.Ratings(gctx, restaurantID, w)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, utils.Internal("failed to load report data", err)
	}

	summary := Aggregate(w, orders, sales, ratings, topN)
	return &summary, nil
}

type Overview struct {
	Today Summary `json:"today"`
	Week  Summary `json:"week"`
	Month Summary `json:"month"`
}

// Overview feeds the owner dashboard: day, week and month with the month's top 5.
func (s *Service) Overview(ctx context.Context, restaurantID string) (*Overview, error) {
	now := s.now()
	var out Overview

	g, gctx := errgroup.WithContext(ctx)
	load := func(dst *Summary, w Window, topN int) {
		g.Go(func() error {
			sum, err := s.Summarize(gctx, restaurantID, w, topN)
			if err != nil {
				return err
			}
			*dst = *sum
			return nil
		})
	}
	load(&out.Today, Today(now), 0)
	load(&out.Week, ThisWeek(now), 0)
	load(&out.Month, ThisMonth(now), OverviewTopItems)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// DailyReport summarizes the current UTC day and hands it to every
// notifier. A failed channel is reported in Delivery, never returned.
func (s *Service) DailyReport(ctx context.Context, restaurantID string) (*DailyReport, error) {
	w := UTCDay(s.now())
	summary, err := s.Summarize(ctx, restaurantID, w, DailyTopItems)
	if err != nil {
		return nil, err
	}

	date := w.From.Format(dateLayout)
	report := &DailyReport{
		RestaurantID: restaurantID,
		Date:         date,
		Summary:      *summary,
		Text:         ReportText(date, *summary),
		Delivery:     make(map[string]DeliveryResult, len(s.Notifiers)),
	}

	for _, n := range s.Notifiers {
		result := DeliveryResult{Sent: true}
		if err := n.Notify(ctx, report); err != nil {
			result = DeliveryResult{Reason: err.Error()}
			s.Logger.Warn("REPORT", fmt.Sprintf("daily report not delivered on %s: %v", n.Name(), err))
		}
		report.Delivery[n.Name()] = result
	}
	s.Logger.Info("REPORT", fmt.Sprintf("daily report %s for %s: %d orders", date, restaurantID, summary.OrderCount))
	return report, nil
}
