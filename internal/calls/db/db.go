package db

import (
	"context"

	"ms-ordering/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateCall(ctx context.Context, call *models.ServerCall) error {
	_, err := d.Bun.NewInsert().Model(call).Exec(ctx)
	return err
}

func (d *DB) UpdateStatus(ctx context.Context, restaurantID, id, status string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.ServerCall)(nil)).
		Set("statut = ?", status).
		Where("id = ?", id).
		Where("restaurant_id = ?", restaurantID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OpenCalls returns pending and acknowledged calls with their table, oldest first.
func (d *DB) OpenCalls(ctx context.Context, restaurantID string) ([]models.ServerCall, error) {
	var list []models.ServerCall
	err := d.Bun.NewSelect().
		Model(&list).
		Relation("Table").
		Where("sc.restaurant_id = ?", restaurantID).
		Where("sc.statut IN (?)", bun.In([]string{models.CallPending, models.CallAcknowledged})).
		OrderExpr("sc.heure ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return list, nil
}
