package ratings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-ordering/internal/database/dbtest"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/ratings"
	ratingsdb "ms-ordering/internal/ratings/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setup(t *testing.T) (*ratings.Service, *bun.DB, *models.Table) {
	db := dbtest.New(t)
	table := dbtest.Table(t, db, "r1", 1, "", time.Now())
	return ratings.NewService(&ratingsdb.DB{Bun: db}, nil, nil, logger.NewTestLogger()), db, table
}

func TestValidScore(t *testing.T) {
	for _, s := range []float64{1, 3, 5} {
		_, ok := ratings.ValidScore(s)
		assert.True(t, ok, "%v", s)
	}
	for _, s := range []float64{0, 6, 4.5, -1} {
		_, ok := ratings.ValidScore(s)
		assert.False(t, ok, "%v", s)
	}
}

func TestRateReadyOrderOnce(t *testing.T) {
	svc, db, table := setup(t)
	ready := dbtest.Order(t, db, "r1", table.ID, models.OrderReady, 1000, time.Now())
	ctx := context.Background()

	rating, err := svc.Rate(ctx, models.RatingRequest{OrderID: ready.ID, Score: 4, Comment: "  great  "})
	require.NoError(t, err)
	assert.Equal(t, 4, rating.Score)
	require.NotNil(t, rating.Comment)
	assert.Equal(t, "great", *rating.Comment)

	_, err = svc.Rate(ctx, models.RatingRequest{OrderID: ready.ID, Score: 5})
	assert.ErrorIs(t, err, ratings.ErrAlreadyRated)

	n, err := db.NewSelect().Model((*models.Rating)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRateRejections(t *testing.T) {
	svc, db, table := setup(t)
	cooking := dbtest.Order(t, db, "r1", table.ID, models.OrderPreparing, 1000, time.Now())
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.RatingRequest
		want error
	}{
		{"missing order id", models.RatingRequest{Score: 3}, ratings.ErrInvalidRating},
		{"score too high", models.RatingRequest{OrderID: cooking.ID, Score: 6}, ratings.ErrInvalidRating},
		{"score too low", models.RatingRequest{OrderID: cooking.ID, Score: 0}, ratings.ErrInvalidRating},
		{"unknown order", models.RatingRequest{OrderID: "nope", Score: 3}, ratings.ErrOrderNotFound},
		{"not ready", models.RatingRequest{OrderID: cooking.ID, Score: 3}, ratings.ErrOrderNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Rate(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// racingStore hides the existing rating from the pre-check, as a concurrent
// request would see it, so only the unique index catches the duplicate.
type racingStore struct{ *ratingsdb.DB }

func (racingStore) RatingExists(context.Context, string) (bool, error) { return false, nil }

func TestUniqueIndexMapsToConflict(t *testing.T) {
	_, db, table := setup(t)
	ready := dbtest.Order(t, db, "r1", table.ID, models.OrderReady, 1000, time.Now())
	svc := ratings.NewService(racingStore{&ratingsdb.DB{Bun: db}}, nil, nil, logger.NewTestLogger())
	ctx := context.Background()

	_, err := svc.Rate(ctx, models.RatingRequest{OrderID: ready.ID, Score: 5})
	require.NoError(t, err)
	_, err = svc.Rate(ctx, models.RatingRequest{OrderID: ready.ID, Score: 2})
	assert.ErrorIs(t, err, ratings.ErrAlreadyRated)
	assert.False(t, errors.Is(err, ratings.ErrDuplicate))
}
