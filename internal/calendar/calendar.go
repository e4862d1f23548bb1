// Package calendar mirrors meetings to an external calendar. The gateway is
// an optional capability: callers must function fully with no gateway at all,
// and treat call failures the same as absence.
package calendar

import (
	"context"
	"time"
)

// Event is the payload for a remote calendar event.
type Event struct {
	Summary     string
	Description string
	Start       time.Time // UTC
	End         time.Time // UTC
}

// RemoteEvent identifies an event created on the remote calendar.
type RemoteEvent struct {
	ID   string
	Link string // user-facing URL, may be empty
}

// Gateway is the narrow contract Quorum consumes. Implementations are
// expected to fail independently of the rest of the system; callers degrade
// to local-only events on any error.
type Gateway interface {
	CreateEvent(ctx context.Context, ev Event) (RemoteEvent, error)
	DeleteEvent(ctx context.Context, eventID string) error
}
