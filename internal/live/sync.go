package live

import (
	"context"
	"fmt"
	"time"

	"ms-ordering/internal/feed"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/utils"
)

const (
	DefaultRefreshInterval = 15 * time.Second
	DefaultHeartbeat       = 25 * time.Second
)

type Subscriber interface {
	Subscribe(ctx context.Context, filter feed.Filter) <-chan feed.ChangeEvent
}

// Synchronizer drives one view: it refreshes on matching change events and
// on a fallback ticker, and hands every frame to emit.
type Synchronizer struct {
	Bus       Subscriber
	Filter    feed.Filter
	View      View
	Interval  time.Duration
	Heartbeat time.Duration
	Logger    *logger.Logger
	Name      string
}

// Run blocks until ctx is done, emit fails or the view rejects the caller.
// Store failures are logged and retried on the next trigger.
func (s *Synchronizer) Run(ctx context.Context, emit func(Frame) error) error {
	var events <-chan feed.ChangeEvent
	if s.Bus != nil {
		events = s.Bus.Subscribe(ctx, s.Filter)
	}

	if err := s.refresh(ctx, emit); err != nil {
		return err
	}

	var tick, beat <-chan time.Time
	if s.Interval > 0 {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	if s.Heartbeat > 0 {
		heartbeat := time.NewTicker(s.Heartbeat)
		defer heartbeat.Stop()
		beat = heartbeat.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			drain(events)
		case <-tick:
		case <-beat:
			if err := emit(Frame{}); err != nil {
				return err
			}
			continue
		}
		if err := s.refresh(ctx, emit); err != nil {
			return err
		}
	}
}

func (s *Synchronizer) refresh(ctx context.Context, emit func(Frame) error) error {
	frames, err := s.View.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if utils.StatusCode(err) < 500 {
			return err
		}
		s.Logger.Warn("LIVE", fmt.Sprintf("%s refresh failed: %v", s.Name, err))
		return nil
	}
	for _, f := range frames {
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}

// drain coalesces a burst of queued events into one refresh.
func drain(events <-chan feed.ChangeEvent) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
