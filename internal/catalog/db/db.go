package db

import (
	"context"
	"database/sql"
	"time"

	"ms-ordering/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- SNAPSHOT READS ----------------

func (d *DB) Categories(ctx context.Context, restaurantID string) ([]models.Category, error) {
	var rows []models.Category
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("restaurant_id = ?", restaurantID).
		Order("ordre ASC").
		Scan(ctx)
	return rows, err
}

func (d *DB) Subcategories(ctx context.Context, restaurantID string) ([]models.Subcategory, error) {
	var rows []models.Subcategory
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("restaurant_id = ?", restaurantID).
		Order("ordre ASC").
		Scan(ctx)
	return rows, err
}

func (d *DB) Items(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	var rows []models.MenuItem
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("item.restaurant_id = ?", restaurantID).
		OrderExpr("item.nom ASC").
		Scan(ctx)
	return rows, err
}

func (d *DB) Accompaniments(ctx context.Context, restaurantID string) ([]models.Accompaniment, error) {
	var rows []models.Accompaniment
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("restaurant_id = ?", restaurantID).
		Order("ordre ASC").
		Scan(ctx)
	return rows, err
}

// PizzaSizes returns sizes of the restaurant's items, by label.
func (d *DB) PizzaSizes(ctx context.Context, restaurantID string) ([]models.PizzaSize, error) {
	var rows []models.PizzaSize
	err := d.Bun.NewSelect().
		Model(&rows).
		Join("JOIN items AS item ON item.id = pizza_size.item_id").
		Where("item.restaurant_id = ?", restaurantID).
		OrderExpr("pizza_size.taille ASC").
		Scan(ctx)
	return rows, err
}

// ActivePromotions returns enabled promotions whose window contains now.
func (d *DB) ActivePromotions(ctx context.Context, restaurantID string, now time.Time) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("restaurant_id = ?", restaurantID).
		Where("active = ?", true).
		Where("date_debut <= ?", now.UTC()).
		Where("date_fin >= ?", now.UTC()).
		Scan(ctx)
	return rows, err
}

func (d *DB) ServiceHours(ctx context.Context, restaurantID string) ([]models.ServiceHours, error) {
	var rows []models.ServiceHours
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("restaurant_id = ?", restaurantID).
		Order("service_type ASC").
		Scan(ctx)
	return rows, err
}

// ---------------- ORDER BATCH READS ----------------

// ItemsByIDs loads the given items of a restaurant with their category.
func (d *DB) ItemsByIDs(ctx context.Context, restaurantID string, ids []string) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.MenuItem
	err := d.Bun.NewSelect().
		Model(&rows).
		Relation("Category").
		Where("item.restaurant_id = ?", restaurantID).
		Where("item.id IN (?)", bun.In(ids)).
		Scan(ctx)
	return rows, err
}

func (d *DB) AccompanimentsByIDs(ctx context.Context, restaurantID string, ids []string) ([]models.Accompaniment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Accompaniment
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("restaurant_id = ?", restaurantID).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	return rows, err
}

func (d *DB) PizzaSizesByIDs(ctx context.Context, ids []string) ([]models.PizzaSize, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.PizzaSize
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	return rows, err
}

// ---------------- MUTATIONS ----------------

func (d *DB) SetItemAvailability(ctx context.Context, restaurantID, itemID string, available bool) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.MenuItem)(nil)).
		Set("disponible = ?", available).
		Where("id = ?", itemID).
		Where("restaurant_id = ?", restaurantID).
		Exec(ctx)
	return affected(res, err)
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
