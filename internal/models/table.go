package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TableActive   = "active"
	TableInactive = "inactive"
)

type Table struct {
	bun.BaseModel `bun:"table:tables,alias:t"`

	ID           string    `bun:"id,pk" json:"id"`
	Number       int       `bun:"numero,notnull" json:"numero"`
	QRCode       string    `bun:"qr_code" json:"qr_code"`
	AccessToken  *string   `bun:"access_token" json:"-"`
	Status       string    `bun:"statut,notnull" json:"statut"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}
