package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ms-ordering/internal/models"
	"ms-ordering/internal/ratings"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

const uniqueViolation = "23505"

type DB struct {
	Bun *bun.DB
}

func (d *DB) OrderForRating(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := d.Bun.NewSelect().
		Model(&o).
		Column("id", "statut", "restaurant_id", "table_id").
		Where("o.id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DB) RatingExists(ctx context.Context, orderID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Rating)(nil)).
		Where("order_id = ?", orderID).
		Exists(ctx)
}

// CreateRating maps a unique index violation to ratings.ErrDuplicate.
func (d *DB) CreateRating(ctx context.Context, rating *models.Rating) error {
	_, err := d.Bun.NewInsert().Model(rating).Exec(ctx)
	if isUniqueViolation(err) {
		return ratings.ErrDuplicate
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
