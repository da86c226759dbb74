package live

import "context"

const (
	EventSnapshot = "snapshot"
	EventArrival  = "arrival"
	EventCall     = "call"
	EventReady    = "ready"
)

// Frame is one server-sent event. A frame without Event is a keep-alive.
type Frame struct {
	Event string
	Data  interface{}
}

func (f Frame) IsHeartbeat() bool { return f.Event == "" }

// View reloads its data and returns the frames to push, snapshot first.
type View interface {
	Refresh(ctx context.Context) ([]Frame, error)
}
