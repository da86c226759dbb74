package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-ordering/internal/models"
	"ms-ordering/internal/tables"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// FindActiveTable returns the newest active table matching q, or nil.
func (d *DB) FindActiveTable(ctx context.Context, q tables.Query) (*models.Table, error) {
	var table models.Table
	query := d.Bun.NewSelect().
		Model(&table).
		Where("t.numero = ?", q.Number).
		Where("t.statut = ?", models.TableActive)

	if q.RestaurantID != "" {
		query = query.Where("t.restaurant_id = ?", q.RestaurantID)
	}
	if q.AccessToken != "" {
		query = query.Where("t.access_token = ?", q.AccessToken)
	}

	err := query.OrderExpr("t.created_at DESC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (d *DB) ListTables(ctx context.Context, restaurantID string) ([]models.Table, error) {
	var list []models.Table
	err := d.Bun.NewSelect().
		Model(&list).
		Where("t.restaurant_id = ?", restaurantID).
		OrderExpr("t.numero ASC, t.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) GetTable(ctx context.Context, restaurantID, id string) (*models.Table, error) {
	var table models.Table
	err := d.Bun.NewSelect().
		Model(&table).
		Where("t.id = ?", id).
		Where("t.restaurant_id = ?", restaurantID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (d *DB) CreateTable(ctx context.Context, table *models.Table) error {
	_, err := d.Bun.NewInsert().Model(table).Exec(ctx)
	return err
}

func (d *DB) UpdateAccess(ctx context.Context, restaurantID, id, token, qrCode string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Table)(nil)).
		Set("access_token = ?", token).
		Set("qr_code = ?", qrCode).
		Where("id = ?", id).
		Where("restaurant_id = ?", restaurantID).
		Exec(ctx)
	return affected(res, err)
}

func (d *DB) UpdateStatus(ctx context.Context, restaurantID, id, status string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Table)(nil)).
		Set("statut = ?", status).
		Where("id = ?", id).
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
