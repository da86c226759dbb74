package ratings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"ms-ordering/internal/feed"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrInvalidRating = utils.Invalid("invalid rating data")
	ErrOrderNotFound = utils.NotFound("order not found")
	ErrOrderNotReady = utils.Conflict("order must be ready before it can be rated")
	ErrAlreadyRated  = utils.Conflict("rating already recorded")
)

// ErrDuplicate is returned by stores when the unique order index rejects an insert.
var ErrDuplicate = errors.New("rating already exists")

const (
	MinScore = 1
	MaxScore = 5
)

type Store interface {
	// OrderForRating returns the order header or nil, nil.
	OrderForRating(ctx context.Context, orderID string) (*models.Order, error)
	RatingExists(ctx context.Context, orderID string) (bool, error)
	CreateRating(ctx context.Context, rating *models.Rating) error
}

type EventPublisher interface {
	PublishRatingCreated(ctx context.Context, restaurantID string, rating *models.Rating) error
}

type Service struct {
	Store  Store
	Bus    feed.Publisher
	Events EventPublisher
	Logger *logger.Logger
	now    func() time.Time
}

func NewService(store Store, bus feed.Publisher, events EventPublisher, log *logger.Logger) *Service {
	return &Service{Store: store, Bus: bus, Events: events, Logger: log, now: time.Now}
}

// ValidScore accepts whole scores from 1 to 5.
func ValidScore(score float64) (int, bool) {
	if math.IsNaN(score) || math.IsInf(score, 0) || score != math.Trunc(score) {
		return 0, false
	}
	if score < MinScore || score > MaxScore {
		return 0, false
	}
	return int(score), true
}

// Rate records the single rating of a ready order.
func (s *Service) Rate(ctx context.Context, req models.RatingRequest) (*models.Rating, error) {
	orderID := strings.TrimSpace(req.OrderID)
	score, ok := ValidScore(req.Score)
	if orderID == "" || !ok {
		return nil, ErrInvalidRating
	}

	order, err := s.Store.OrderForRating(ctx, orderID)
	if err != nil {
		return nil, utils.Internal("failed to load order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != models.OrderReady {
		return nil, ErrOrderNotReady
	}

	exists, err := s.Store.RatingExists(ctx, orderID)
	if err != nil {
		return nil, utils.Internal("failed to check existing rating", err)
	}
	if exists {
		return nil, ErrAlreadyRated
	}

	rating := &models.Rating{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Score:     score,
		CreatedAt: s.now().UTC(),
	}
	if comment := strings.TrimSpace(req.Comment); comment != "" {
		rating.Comment = &comment
	}

	if err := s.Store.CreateRating(ctx, rating); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrAlreadyRated
		}
		return nil, utils.Internal("failed to save rating", err)
	}
	s.Logger.Info("RATINGS", fmt.Sprintf("order %s rated %d/5", orderID, score))

	if s.Bus != nil {
		s.Bus.Publish(feed.ChangeEvent{
			Table:        feed.TableRatings,
			Op:           feed.OpInsert,
			RestaurantID: order.RestaurantID,
			RecordID:     rating.ID,
			TableID:      order.TableID,
		})
	}
	if s.Events != nil {
		if err := s.Events.PublishRatingCreated(ctx, order.RestaurantID, rating); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("rating event for %s not published: %v", orderID, err))
		}
	}
	return rating, nil
}
