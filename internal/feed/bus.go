// Package feed carries row-change notifications from the store adapters to
// the live views. Subscribers register a filter predicate; delivery is
// best effort and never blocks a publisher.
package feed

import (
	"context"
	"sync"
	"time"
)

type Table string

const (
	TableOrders      Table = "orders"
	TableOrderItems  Table = "order_items"
	TableItems       Table = "items"
	TableServerCalls Table = "server_calls"
	TableRatings     Table = "ratings"
	TableTables      Table = "tables"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

type ChangeEvent struct {
	Table        Table     `json:"table"`
	Op           Op        `json:"op"`
	RestaurantID string    `json:"restaurant_id"`
	RecordID     string    `json:"record_id"`
	TableID      string    `json:"table_id,omitempty"`
	At           time.Time `json:"at"`
}

type Filter func(ChangeEvent) bool

// Publisher is implemented by Bus. Services depend on this.
type Publisher interface {
	Publish(ev ChangeEvent)
}

const defaultBuffer = 16

type subscription struct {
	ch     chan ChangeEvent
	filter Filter
}

type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscription
	nextID int
	buffer int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscription), buffer: defaultBuffer}
}

// Subscribe returns a channel of matching events. The channel is closed once ctx is done.
func (b *Bus) Subscribe(ctx context.Context, filter Filter) <-chan ChangeEvent {
	sub := &subscription{ch: make(chan ChangeEvent, b.buffer), filter: filter}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(id)
	}()

	return sub.ch
}

// Publish fans ev out to every matching subscriber. Full subscribers miss the event.
func (b *Bus) Publish(ev ChangeEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// ForRestaurant matches events of one restaurant on any of the given tables.
func ForRestaurant(restaurantID string, tables ...Table) Filter {
	return func(ev ChangeEvent) bool {
		if ev.RestaurantID != "" && ev.RestaurantID != restaurantID {
			return false
		}
		if len(tables) == 0 {
			return true
		}
		for _, t := range tables {
			if ev.Table == t {
				return true
			}
		}
		return false
	}
}

// ForDiningTable matches order events of a single dining table.
func ForDiningTable(tableID string) Filter {
	return func(ev ChangeEvent) bool {
		return ev.Table == TableOrders && ev.TableID == tableID
	}
}
