package calls_test

import (
	"context"
	"testing"
	"time"

	"ms-ordering/internal/calls"
	callsdb "ms-ordering/internal/calls/db"
	"ms-ordering/internal/database/dbtest"
	"ms-ordering/internal/feed"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/tables"
	tablesdb "ms-ordering/internal/tables/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishCallCreated(ctx context.Context, call *models.ServerCall) error {
	return m.Called(ctx, call).Error(0)
}

func newService(t *testing.T, events calls.EventPublisher) (*calls.Service, *bun.DB, *feed.Bus) {
	db := dbtest.New(t)
	bus := feed.NewBus()
	svc := calls.NewService(&callsdb.DB{Bun: db}, tables.NewResolver(&tablesdb.DB{Bun: db}), bus, events, logger.NewTestLogger(), "r1")
	return svc, db, bus
}

func TestCreateCall(t *testing.T) {
	events := new(MockEvents)
	events.On("PublishCallCreated", mock.Anything, mock.AnythingOfType("*models.ServerCall")).Return(nil)
	svc, db, bus := newService(t, events)
	table := dbtest.Table(t, db, "r1", 9, "", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feedCh := bus.Subscribe(ctx, feed.ForRestaurant("r1", feed.TableServerCalls))

	call, err := svc.Create(ctx, models.ServerCallRequest{TableNumber: 9, Reason: models.ReasonBill, Details: "   "})
	require.NoError(t, err)
	assert.Equal(t, table.ID, call.TableID)
	assert.Equal(t, models.CallPending, call.Status)
	assert.Nil(t, call.Details)

	ev := <-feedCh
	assert.Equal(t, call.ID, ev.RecordID)
	assert.Equal(t, feed.OpInsert, ev.Op)
	events.AssertExpectations(t)

	withDetails, err := svc.Create(ctx, models.ServerCallRequest{TableNumber: 9, Reason: models.ReasonSpecial, Details: "  no onions  "})
	require.NoError(t, err)
	require.NotNil(t, withDetails.Details)
	assert.Equal(t, "no onions", *withDetails.Details)
}

func TestCreateCallRejections(t *testing.T) {
	svc, db, _ := newService(t, nil)
	dbtest.Table(t, db, "r1", 9, "", time.Now())
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.ServerCallRequest
		want error
	}{
		{"zero table", models.ServerCallRequest{TableNumber: 0, Reason: models.ReasonHelp}, calls.ErrInvalidTableNumber},
		{"negative table", models.ServerCallRequest{TableNumber: -2, Reason: models.ReasonHelp}, calls.ErrInvalidTableNumber},
		{"unknown reason", models.ServerCallRequest{TableNumber: 9, Reason: "dessert"}, calls.ErrInvalidReason},
		{"unknown table", models.ServerCallRequest{TableNumber: 10, Reason: models.ReasonHelp}, calls.ErrTableNotFound},
		{"fractional table", models.ServerCallRequest{TableNumber: 9.5, Reason: models.ReasonHelp}, calls.ErrTableNotFound},
		{"other restaurant", models.ServerCallRequest{TableNumber: 9, Reason: models.ReasonHelp, RestaurantID: "r2"}, calls.ErrTableNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateStatusIsScoped(t *testing.T) {
	svc, db, _ := newService(t, nil)
	dbtest.Table(t, db, "r1", 9, "", time.Now())
	ctx := context.Background()

	call, err := svc.Create(ctx, models.ServerCallRequest{TableNumber: 9, Reason: models.ReasonHelp})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, "r1", call.ID, "done"), calls.ErrInvalidStatus)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, "r2", call.ID, models.CallClosed), calls.ErrCallNotFound)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, "r1", "missing", models.CallClosed), calls.ErrCallNotFound)
	require.NoError(t, svc.UpdateStatus(ctx, "r1", call.ID, models.CallAcknowledged))

	open, err := svc.OpenCalls(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, models.CallAcknowledged, open[0].Status)
	require.NotNil(t, open[0].Table)
	assert.Equal(t, 9, open[0].Table.Number)

	require.NoError(t, svc.UpdateStatus(ctx, "r1", call.ID, models.CallClosed))
	open, err = svc.OpenCalls(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSortCalls(t *testing.T) {
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	list := []models.ServerCall{
		{ID: "ack-old", Status: models.CallAcknowledged, PlacedAt: base},
		{ID: "pending-late", Status: models.CallPending, PlacedAt: base.Add(5 * time.Minute)},
		{ID: "pending-early", Status: models.CallPending, PlacedAt: base.Add(time.Minute)},
		{ID: "closed", Status: models.CallClosed, PlacedAt: base.Add(-time.Hour)},
	}
	calls.SortCalls(list)

	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"pending-early", "pending-late", "ack-old", "closed"}, ids)
}
