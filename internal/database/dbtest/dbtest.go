// Package dbtest builds in-memory sqlite stores with the full schema for package tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"ms-ordering/internal/database"
	"ms-ordering/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func New(t *testing.T) *bun.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.CreateSchema(ctx, db))
	return db
}

func Insert(t *testing.T, db *bun.DB, rows ...interface{}) {
	t.Helper()
	for _, row := range rows {
		_, err := db.NewInsert().Model(row).Exec(context.Background())
		require.NoError(t, err)
	}
}

// Table inserts an active table and returns it.
func Table(t *testing.T, db *bun.DB, restaurantID string, number int, token string, createdAt time.Time) *models.Table {
	t.Helper()
	table := &models.Table{
		ID:           uuid.NewString(),
		Number:       number,
		Status:       models.TableActive,
		RestaurantID: restaurantID,
		CreatedAt:    createdAt.UTC(),
	}
	if token != "" {
		table.AccessToken = &token
	}
	Insert(t, db, table)
	return table
}

func Category(t *testing.T, db *bun.DB, restaurantID, slug string) *models.Category {
	t.Helper()
	c := &models.Category{ID: uuid.NewString(), Name: slug, Slug: slug, RestaurantID: restaurantID}
	Insert(t, db, c)
	return c
}

func Item(t *testing.T, db *bun.DB, restaurantID, categoryID, name string, price int64, withSide bool) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		ID:                    uuid.NewString(),
		Name:                  name,
		Price:                 price,
		CategoryID:            categoryID,
		Available:             true,
		Allergens:             []string{},
		RequiresAccompaniment: withSide,
		RestaurantID:          restaurantID,
	}
	Insert(t, db, item)
	return item
}

func Order(t *testing.T, db *bun.DB, restaurantID, tableID, status string, total int64, placedAt time.Time) *models.Order {
	t.Helper()
	o := &models.Order{
		ID:           uuid.NewString(),
		TableID:      tableID,
		RestaurantID: restaurantID,
		Status:       status,
		PlacedAt:     placedAt.UTC(),
		Total:        total,
		UpdatedAt:    placedAt.UTC(),
	}
	Insert(t, db, o)
	return o
}
