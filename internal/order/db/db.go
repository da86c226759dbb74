package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-ordering/internal/models"
	"ms-ordering/internal/order"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder → insert the order header
func (d *DB) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := d.Bun.NewInsert().Model(o).Exec(ctx)
	return err
}

// InsertItems → bulk insert the order lines
func (d *DB) InsertItems(ctx context.Context, items []*models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&items).Exec(ctx)
	return err
}

// DeleteOrder → remove an order and any lines already written
func (d *DB) DeleteOrder(ctx context.Context, id string) error {
	if _, err := d.Bun.NewDelete().
		Model((*models.OrderItem)(nil)).
		Where("order_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}
	_, err := d.Bun.NewDelete().
		Model((*models.Order)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// GetOrder → one order with its table and detailed lines
func (d *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o := new(models.Order)
	err := withDetails(d.Bun.NewSelect().Model(o)).
		Where("o.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateOrder → partial update scoped to the restaurant, then reload the header
func (d *DB) UpdateOrder(ctx context.Context, restaurantID, id string, c order.Changes) (*models.Order, error) {
	q := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("updated_at = ?", c.UpdatedAt)
	if c.Status != nil {
		q = q.Set("statut = ?", *c.Status)
	}
	if c.EtaSet {
		if c.Eta == nil {
			q = q.Set("eta_minutes = NULL")
		} else {
			q = q.Set("eta_minutes = ?", *c.Eta)
		}
	}

	res, err := q.
		Where("id = ?", id).
		Where("restaurant_id = ?", restaurantID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}

	o := new(models.Order)
	if err := d.Bun.NewSelect().Model(o).Where("o.id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// ---------------- TABLE QUERIES ----------------

// ActiveOrdersForTable → received/preparing orders of a table, newest first
func (d *DB) ActiveOrdersForTable(ctx context.Context, tableID string, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("o.table_id = ?", tableID).
		Where("o.statut IN (?)", bun.In([]string{models.OrderReceived, models.OrderPreparing})).
		OrderExpr("o.heure DESC").
		Limit(limit).
		Scan(ctx)
	return orders, err
}

// OrdersForTable → the given orders, restricted to the table, newest first
func (d *DB) OrdersForTable(ctx context.Context, tableID string, ids []string) ([]models.Order, error) {
	orders := []models.Order{}
	if len(ids) == 0 {
		return orders, nil
	}
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("o.table_id = ?", tableID).
		Where("o.id IN (?)", bun.In(ids)).
		OrderExpr("o.heure DESC").
		Scan(ctx)
	return orders, err
}

// ---------------- KITCHEN QUERIES ----------------

// KitchenOrders → orders of the restaurant placed since `since` in one of
// the statuses, with table and line details
func (d *DB) KitchenOrders(ctx context.Context, restaurantID string, since time.Time, statuses []string) ([]models.Order, error) {
	orders := []models.Order{}
	err := withDetails(d.Bun.NewSelect().Model(&orders)).
		Where("o.restaurant_id = ?", restaurantID).
		Where("o.heure >= ?", since.UTC()).
		Where("o.statut IN (?)", bun.In(statuses)).
		OrderExpr("o.heure ASC").
		Scan(ctx)
	return orders, err
}

func withDetails(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("Table").
		Relation("Lines").
		Relation("Lines.Item").
		Relation("Lines.Accompaniment").
		Relation("Lines.PizzaSize")
}
