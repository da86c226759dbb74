package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderReceived  = "received"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID           string    `bun:"id,pk" json:"id"`
	TableID      string    `bun:"table_id,notnull" json:"table_id"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	Status       string    `bun:"statut,notnull" json:"statut"`
	PlacedAt     time.Time `bun:"heure,notnull" json:"heure"`
	Total        int64     `bun:"total,notnull" json:"total"`
	EtaMinutes   *int      `bun:"eta_minutes" json:"eta_minutes"`
	UpdatedAt    time.Time `bun:"updated_at,notnull" json:"updated_at"`

	Table *Table       `bun:"rel:belongs-to,join:table_id=id" json:"table,omitempty"`
	Lines []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"lines,omitempty"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID              string  `bun:"id,pk" json:"id"`
	OrderID         string  `bun:"order_id,notnull" json:"order_id"`
	ItemID          string  `bun:"item_id,notnull" json:"item_id"`
	Quantity        int     `bun:"quantite,notnull" json:"quantite"`
	Note            *string `bun:"note" json:"note"`
	AccompanimentID *string `bun:"accompagnement_id" json:"accompagnement_id"`
	PizzaSizeID     *string `bun:"pizza_size_id" json:"pizza_size_id"`
	UnitPrice       int64   `bun:"prix_unitaire,notnull" json:"prix_unitaire"`
	Supplement      int64   `bun:"supplement,notnull" json:"supplement"`

	Item          *MenuItem      `bun:"rel:belongs-to,join:item_id=id" json:"item,omitempty"`
	Accompaniment *Accompaniment `bun:"rel:belongs-to,join:accompagnement_id=id" json:"accompaniment,omitempty"`
	PizzaSize     *PizzaSize     `bun:"rel:belongs-to,join:pizza_size_id=id" json:"pizza_size,omitempty"`
}

// OrderRequest is the cart submitted by a diner.
type OrderRequest struct {
	TableNumber  float64            `json:"tableNumber"`
	AccessToken  string             `json:"accessToken"`
	RestaurantID string             `json:"restaurantId,omitempty"`
	Lines        []OrderLineRequest `json:"lines"`
}

type OrderLineRequest struct {
	ItemID          string   `json:"itemId"`
	Quantity        *float64 `json:"quantity,omitempty"`
	Note            string   `json:"note,omitempty"`
	AccompanimentID string   `json:"accompanimentId,omitempty"`
	PizzaSizeID     string   `json:"pizzaSizeId,omitempty"`
}

type OrderResponse struct {
	OrderID    string `json:"orderId"`
	Total      int64  `json:"total"`
	EtaMinutes int    `json:"etaMinutes"`
}

// OrderUpdate carries a kitchen edit. EtaSet distinguishes an explicit null from an absent field.
type OrderUpdate struct {
	Status     *string
	EtaSet     bool
	EtaMinutes *float64
}
