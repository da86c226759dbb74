package live

import (
	"context"

	"ms-ordering/internal/order"
)

type ClientOrdersSource interface {
	ClientOrders(ctx context.Context, q order.ClientOrdersQuery) (*order.ClientOrders, error)
}

// CustomerView follows one table for a diner holding its QR token.
type CustomerView struct {
	Source ClientOrdersSource
	Query  order.ClientOrdersQuery
}

func NewCustomerView(source ClientOrdersSource, q order.ClientOrdersQuery) *CustomerView {
	return &CustomerView{Source: source, Query: q}
}

// Refresh re-checks the table session each time, so a rotated token ends the stream.
func (v *CustomerView) Refresh(ctx context.Context) ([]Frame, error) {
	orders, err := v.Source.ClientOrders(ctx, v.Query)
	if err != nil {
		return nil, err
	}
	return []Frame{{Event: EventSnapshot, Data: orders}}, nil
}
