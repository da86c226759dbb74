package live

import (
	"context"
	"sync"
)

// ArrivalLedger remembers announced arrivals so an order is handed to the
// ticket printer once per restaurant, across screens and instances.
type ArrivalLedger interface {
	// Claim records id under scope and reports whether this call was first.
	Claim(ctx context.Context, scope, id string) (bool, error)
}

const defaultLedgerSize = 2048

// MemoryLedger is a bounded in-process ledger; the oldest ids are evicted first.
type MemoryLedger struct {
	mu    sync.Mutex
	size  int
	order []string
	seen  map[string]struct{}
}

func NewMemoryLedger(size int) *MemoryLedger {
	if size <= 0 {
		size = defaultLedgerSize
	}
	return &MemoryLedger{size: size, seen: make(map[string]struct{}, size)}
}

func (l *MemoryLedger) Claim(_ context.Context, scope, id string) (bool, error) {
	key := scope + ":" + id

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	if len(l.order) >= l.size {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.seen, oldest)
	}
	l.order = append(l.order, key)
	l.seen[key] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}
