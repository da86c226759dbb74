package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	CallPending      = "pending"
	CallAcknowledged = "acknowledged"
	CallClosed       = "closed"
)

const (
	ReasonBill    = "addition"
	ReasonHelp    = "aide"
	ReasonSpecial = "demande_speciale"
)

type ServerCall struct {
	bun.BaseModel `bun:"table:server_calls,alias:sc"`

	ID           string    `bun:"id,pk" json:"id"`
	TableID      string    `bun:"table_id,notnull" json:"table_id"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	Reason       string    `bun:"motif,notnull" json:"motif"`
	Details      *string   `bun:"details" json:"details"`
	Status       string    `bun:"statut,notnull" json:"statut"`
	PlacedAt     time.Time `bun:"heure,notnull" json:"heure"`

	Table *Table `bun:"rel:belongs-to,join:table_id=id" json:"table,omitempty"`
}

type ServerCallRequest struct {
	TableNumber  float64 `json:"tableNumber"`
	Reason       string  `json:"motif"`
	Details      string  `json:"details,omitempty"`
	RestaurantID string  `json:"restaurantId,omitempty"`
}
