package analytics

import (
	"context"

	"ms-ordering/internal/models"

	"github.com/uptrace/bun"
)

// DB runs the reporting queries.
type DB struct {
	bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// Orders returns the orders of a window with their table, newest first.
func (db *DB) Orders(ctx context.Context, restaurantID string, w Window) ([]models.Order, error) {
	orders := []models.Order{}
	err := db.bun.NewSelect().
		Model(&orders).
		Relation("Table").
		Where("o.restaurant_id = ?", restaurantID).
		Where("o.heure >= ?", w.From.UTC()).
		Where("o.heure <= ?", w.To.UTC()).
		OrderExpr("o.heure DESC").
		Scan(ctx)
	return orders, err
}

// ItemSales sums the quantities sold per item name over a window.
func (db *DB) ItemSales(ctx context.Context, restaurantID string, w Window) ([]ItemSale, error) {
	var sales []ItemSale
	err := db.bun.NewRaw(`
		SELECT
			i.nom AS name,
			SUM(oi.quantite) AS quantity
		FROM
			order_items oi
		JOIN
			orders o ON o.id = oi.order_id
		JOIN
			items i ON i.id = oi.item_id
		WHERE
			o.restaurant_id = ?
			AND o.heure >= ?
			AND o.heure <= ?
		GROUP BY
			i.nom
	`, restaurantID, w.From.UTC(), w.To.UTC()).Scan(ctx, &sales)
	return sales, err
}

// Ratings returns the ratings left on the orders of a window.
func (db *DB) Ratings(ctx context.Context, restaurantID string, w Window) ([]models.Rating, error) {
	ratings := []models.Rating{}
	err := db.bun.NewSelect().
		Model(&ratings).
		Join("JOIN orders AS o ON o.id = r.order_id").
		Where("o.restaurant_id = ?", restaurantID).
		Where("o.heure >= ?", w.From.UTC()).
		Where("o.heure <= ?", w.To.UTC()).
		Scan(ctx)
	return ratings, err
}
