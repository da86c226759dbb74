package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Category slugs whose dishes are served with a side.
const (
	SlugViandes   = "viandes"
	SlugVolailles = "volailles"
	SlugPoissons  = "poissons"
	SlugPizzas    = "pizzas"
	SlugBrunch    = "brunch"
)

type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants"`

	ID      string  `bun:"id,pk" json:"id"`
	Name    string  `bun:"nom,notnull" json:"nom"`
	Logo    *string `bun:"logo" json:"logo"`
	Address string  `bun:"adresse" json:"adresse"`
}

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID           string `bun:"id,pk" json:"id"`
	Name         string `bun:"nom,notnull" json:"nom"`
	Slug         string `bun:"slug,notnull" json:"slug"`
	Icon         string `bun:"icone" json:"icone"`
	Order        int    `bun:"ordre" json:"ordre"`
	RestaurantID string `bun:"restaurant_id,notnull" json:"restaurant_id"`
}

type Subcategory struct {
	bun.BaseModel `bun:"table:subcategories"`

	ID           string `bun:"id,pk" json:"id"`
	Name         string `bun:"nom,notnull" json:"nom"`
	Order        int    `bun:"ordre" json:"ordre"`
	CategoryID   string `bun:"categorie_id,notnull" json:"categorie_id"`
	RestaurantID string `bun:"restaurant_id,notnull" json:"restaurant_id"`
}

type MenuItem struct {
	bun.BaseModel `bun:"table:items,alias:item"`

	ID                    string    `bun:"id,pk" json:"id"`
	Name                  string    `bun:"nom,notnull" json:"nom"`
	Description           string    `bun:"description" json:"description"`
	Price                 int64     `bun:"prix,notnull" json:"prix"`
	Photo                 *string   `bun:"photo" json:"photo"`
	CategoryID            string    `bun:"categorie_id,notnull" json:"categorie_id"`
	SubcategoryID         *string   `bun:"subcategorie_id" json:"subcategorie_id"`
	Available             bool      `bun:"disponible,notnull" json:"disponible"`
	Allergens             []string  `bun:"allergenes" json:"allergenes"`
	RequiresAccompaniment bool      `bun:"a_accompagnement,notnull" json:"a_accompagnement"`
	DishOfDay             bool      `bun:"plat_du_jour,notnull" json:"plat_du_jour"`
	RestaurantID          string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	Category              *Category `bun:"rel:belongs-to,join:categorie_id=id" json:"category,omitempty"`
}

type PizzaSize struct {
	bun.BaseModel `bun:"table:pizza_sizes"`

	ID     string `bun:"id,pk" json:"id"`
	ItemID string `bun:"item_id,notnull" json:"item_id"`
	Label  string `bun:"taille,notnull" json:"taille"`
	Price  int64  `bun:"prix,notnull" json:"prix"`
}

type Accompaniment struct {
	bun.BaseModel `bun:"table:accompaniments"`

	ID           string `bun:"id,pk" json:"id"`
	Name         string `bun:"nom,notnull" json:"nom"`
	Supplement   int64  `bun:"prix_supplement,notnull" json:"prix_supplement"`
	Order        int    `bun:"ordre" json:"ordre"`
	RestaurantID string `bun:"restaurant_id,notnull" json:"restaurant_id"`
}

const (
	PromotionPercent = "percent"
	PromotionAmount  = "amount"
)

type Promotion struct {
	bun.BaseModel `bun:"table:promotions"`

	ID           string    `bun:"id,pk" json:"id"`
	ItemID       string    `bun:"item_id,notnull" json:"item_id"`
	Type         string    `bun:"type,notnull" json:"type"`
	Value        int64     `bun:"valeur,notnull" json:"valeur"`
	StartsAt     time.Time `bun:"date_debut,notnull" json:"date_debut"`
	EndsAt       time.Time `bun:"date_fin,notnull" json:"date_fin"`
	Active       bool      `bun:"active,notnull" json:"active"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
}

// ActiveAt reports whether the promotion is enabled and now lies in [StartsAt, EndsAt].
func (p Promotion) ActiveAt(now time.Time) bool {
	return p.Active && !now.Before(p.StartsAt) && !now.After(p.EndsAt)
}

const (
	ServiceTypeService = "service"
	ServiceTypeBrunch  = "brunch"
)

type ServiceHours struct {
	bun.BaseModel `bun:"table:service_hours"`

	ID           string `bun:"id,pk" json:"id"`
	ServiceType  string `bun:"service_type,notnull" json:"service_type"`
	OpenTime     string `bun:"open_time,notnull" json:"open_time"`
	CloseTime    string `bun:"close_time,notnull" json:"close_time"`
	Enabled      bool   `bun:"enabled,notnull" json:"enabled"`
	RestaurantID string `bun:"restaurant_id,notnull" json:"restaurant_id"`
}
