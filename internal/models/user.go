package models

import "github.com/uptrace/bun"

const (
	RoleKitchen = "cuisine"
	RoleWaiter  = "serveur"
	RoleAdmin   = "admin"
	RoleOwner   = "proprio"
)

// StaffProfile links an identity subject to a role inside one restaurant.
type StaffProfile struct {
	bun.BaseModel `bun:"table:users"`

	ID           string `bun:"id,pk" json:"id"`
	Role         string `bun:"role,notnull" json:"role"`
	RestaurantID string `bun:"restaurant_id,notnull" json:"restaurant_id"`
	FirstName    string `bun:"prenom" json:"prenom"`
	LastName     string `bun:"nom" json:"nom"`
}
