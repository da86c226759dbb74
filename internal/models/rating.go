package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Rating struct {
	bun.BaseModel `bun:"table:ratings,alias:r"`

	ID        string    `bun:"id,pk" json:"id"`
	OrderID   string    `bun:"order_id,notnull,unique" json:"order_id"`
	Score     int       `bun:"note,notnull" json:"note"`
	Comment   *string   `bun:"commentaire" json:"commentaire"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

type RatingRequest struct {
	OrderID string  `json:"orderId"`
	Score   float64 `json:"note"`
	Comment string  `json:"commentaire,omitempty"`
}
