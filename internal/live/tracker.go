package live

import "sync"

// tracker remembers the ids seen by the previous reconciliation of one view.
// The first reconciliation only hydrates it and never reports anything new.
type tracker struct {
	mu       sync.Mutex
	hydrated bool
	previous map[string]struct{}
}

func newTracker() *tracker {
	return &tracker{previous: map[string]struct{}{}}
}

// observe returns the eligible ids absent from the previous set, then
// replaces the previous set with tracked.
func (t *tracker) observe(tracked, eligible []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fresh []string
	if t.hydrated {
		for _, id := range eligible {
			if _, seen := t.previous[id]; !seen {
				fresh = append(fresh, id)
			}
		}
	}

	next := make(map[string]struct{}, len(tracked))
	for _, id := range tracked {
		next[id] = struct{}{}
	}
	t.previous = next
	t.hydrated = true
	return fresh
}
