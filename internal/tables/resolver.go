package tables

import (
	"context"
	"math"
	"regexp"
	"strings"

	"ms-ordering/internal/models"
)

type Scope string

const (
	// ScopeScoped means the lookup was restricted to the caller's restaurant.
	ScopeScoped Scope = "scoped"
	// ScopeFallback means no restaurant was supplied and the lookup ran unscoped.
	ScopeFallback Scope = "fallback"
	// ScopeNone means the input was rejected before any lookup.
	ScopeNone Scope = "none"
)

const (
	TokenMinLength = 16
	TokenMaxLength = 128
)

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

// Query selects the newest active table with the given number.
type Query struct {
	Number       int
	RestaurantID string
	AccessToken  string
}

type Store interface {
	// FindActiveTable returns nil, nil when nothing matches.
	FindActiveTable(ctx context.Context, q Query) (*models.Table, error)
}

// Resolution is the outcome of a lookup. Table nil with Err nil means not
// found; Err non-nil means the store failed. Reason explains a rejection.
type Resolution struct {
	Table  *models.Table
	Err    error
	Scope  Scope
	Reason string
}

func (r Resolution) Found() bool {
	return r.Err == nil && r.Table != nil
}

type Resolver struct {
	Store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{Store: store}
}

func (r *Resolver) ResolveByNumber(ctx context.Context, number float64, restaurantID string) Resolution {
	if !PositiveNumber(number) {
		return Resolution{Scope: ScopeNone, Reason: "invalid table number"}
	}
	n, ok := ValidNumber(number)
	if !ok {
		return Resolution{Scope: ScopeNone, Reason: "table not found"}
	}
	return r.lookup(ctx, Query{Number: n, RestaurantID: strings.TrimSpace(restaurantID)})
}

func (r *Resolver) ResolveByAccessToken(ctx context.Context, number float64, token, restaurantID string) Resolution {
	if !PositiveNumber(number) {
		return Resolution{Scope: ScopeNone, Reason: "invalid table number"}
	}
	n, ok := ValidNumber(number)
	if !ok {
		return Resolution{Scope: ScopeNone, Reason: "table not found"}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Resolution{Scope: ScopeNone, Reason: "missing table access token"}
	}
	if !ValidToken(token) {
		return Resolution{Scope: ScopeNone, Reason: "invalid table access token"}
	}
	return r.lookup(ctx, Query{Number: n, RestaurantID: strings.TrimSpace(restaurantID), AccessToken: token})
}

func (r *Resolver) lookup(ctx context.Context, q Query) Resolution {
	scope := ScopeFallback
	if q.RestaurantID != "" {
		scope = ScopeScoped
	}

	table, err := r.Store.FindActiveTable(ctx, q)
	if err != nil {
		return Resolution{Err: err, Scope: scope}
	}
	return Resolution{Table: table, Scope: scope}
}

// PositiveNumber accepts any finite number above zero. Fractional numbers
// are well-formed requests that simply match no table.
func PositiveNumber(number float64) bool {
	return !math.IsNaN(number) && !math.IsInf(number, 0) && number > 0
}

// ValidNumber accepts finite, positive, whole table numbers.
func ValidNumber(number float64) (int, bool) {
	if !PositiveNumber(number) {
		return 0, false
	}
	if number != math.Trunc(number) || number > math.MaxInt32 {
		return 0, false
	}
	return int(number), true
}

func ValidToken(token string) bool {
	return tokenPattern.MatchString(token)
}
