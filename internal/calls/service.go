package calls

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-ordering/internal/feed"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/tables"
	"ms-ordering/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrInvalidTableNumber = utils.Invalid("invalid table number")
	ErrInvalidReason      = utils.Invalid("invalid call reason")
	ErrInvalidStatus      = utils.Invalid("invalid status")
	ErrTableNotFound      = utils.NotFound("table inactive or not found")
	ErrCallNotFound       = utils.NotFound("call not found")
)

var reasons = map[string]bool{
	models.ReasonBill:    true,
	models.ReasonHelp:    true,
	models.ReasonSpecial: true,
}

var statuses = map[string]bool{
	models.CallPending:      true,
	models.CallAcknowledged: true,
	models.CallClosed:       true,
}

func ValidReason(reason string) bool { return reasons[reason] }
func ValidStatus(status string) bool { return statuses[status] }

// StatusRank orders calls on the floor view: pending, acknowledged, closed.
func StatusRank(status string) int {
	switch status {
	case models.CallPending:
		return 0
	case models.CallAcknowledged:
		return 1
	case models.CallClosed:
		return 2
	}
	return 3
}

type TableResolver interface {
	ResolveByNumber(ctx context.Context, number float64, restaurantID string) tables.Resolution
}

type Store interface {
	CreateCall(ctx context.Context, call *models.ServerCall) error
	// UpdateStatus reports false when no call of restaurantID has that id.
	UpdateStatus(ctx context.Context, restaurantID, id, status string) (bool, error)
	OpenCalls(ctx context.Context, restaurantID string) ([]models.ServerCall, error)
}

type EventPublisher interface {
	PublishCallCreated(ctx context.Context, call *models.ServerCall) error
}

type Service struct {
	Store               Store
	Tables              TableResolver
	Bus                 feed.Publisher
	Events              EventPublisher
	Logger              *logger.Logger
	DefaultRestaurantID string
	now                 func() time.Time
}

func NewService(store Store, resolver TableResolver, bus feed.Publisher, events EventPublisher, log *logger.Logger, defaultRestaurantID string) *Service {
	return &Service{
		Store:               store,
		Tables:              resolver,
		Bus:                 bus,
		Events:              events,
		Logger:              log,
		DefaultRestaurantID: defaultRestaurantID,
		now:                 time.Now,
	}
}

// Create records a pending call from a diner's table.
func (s *Service) Create(ctx context.Context, req models.ServerCallRequest) (*models.ServerCall, error) {
	if !tables.PositiveNumber(req.TableNumber) {
		return nil, ErrInvalidTableNumber
	}
	if !ValidReason(req.Reason) {
		return nil, ErrInvalidReason
	}

	restaurantID := strings.TrimSpace(req.RestaurantID)
	if restaurantID == "" {
		restaurantID = s.DefaultRestaurantID
	}
	res := s.Tables.ResolveByNumber(ctx, req.TableNumber, restaurantID)
	if res.Err != nil {
		return nil, utils.Internal("failed to resolve table", res.Err)
	}
	if !res.Found() {
		return nil, ErrTableNotFound
	}

	call := &models.ServerCall{
		ID:           uuid.NewString(),
		TableID:      res.Table.ID,
		RestaurantID: res.Table.RestaurantID,
		Reason:       req.Reason,
		Status:       models.CallPending,
		PlacedAt:     s.now().UTC(),
	}
	if details := strings.TrimSpace(req.Details); details != "" {
		call.Details = &details
	}

	if err := s.Store.CreateCall(ctx, call); err != nil {
		return nil, utils.Internal("failed to create server call", err)
	}
	s.Logger.Info("CALLS", fmt.Sprintf("table %d called (%s)", res.Table.Number, call.Reason))

	call.Table = res.Table
	s.publish(feed.OpInsert, call)
	if s.Events != nil {
		if err := s.Events.PublishCallCreated(ctx, call); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("call event for %s not published: %v", call.ID, err))
		}
	}
	return call, nil
}

func (s *Service) UpdateStatus(ctx context.Context, restaurantID, id, status string) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	ok, err := s.Store.UpdateStatus(ctx, restaurantID, strings.TrimSpace(id), status)
	if err != nil {
		return utils.Internal("failed to update server call", err)
	}
	if !ok {
		return ErrCallNotFound
	}
	s.publish(feed.OpUpdate, &models.ServerCall{ID: id, RestaurantID: restaurantID})
	return nil
}

// OpenCalls lists pending and acknowledged calls, pending first, oldest first.
func (s *Service) OpenCalls(ctx context.Context, restaurantID string) ([]models.ServerCall, error) {
	list, err := s.Store.OpenCalls(ctx, restaurantID)
	if err != nil {
		return nil, utils.Internal("failed to load server calls", err)
	}
	SortCalls(list)
	return list, nil
}

func (s *Service) publish(op feed.Op, call *models.ServerCall) {
	if s.Bus == nil {
		return
	}
	s.Bus.Publish(feed.ChangeEvent{
		Table:        feed.TableServerCalls,
		Op:           op,
		RestaurantID: call.RestaurantID,
		RecordID:     call.ID,
		TableID:      call.TableID,
	})
}
