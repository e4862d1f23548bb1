// Package meeting implements the meeting lifecycle: creation with optional
// calendar mirroring, authorized deletion with cascade, querying, and
// attendance registration.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zulandar/quorum/internal/calendar"
	"github.com/zulandar/quorum/internal/models"
	"gorm.io/gorm"
)

// LocalEventPrefix tags synthetic event ids for meetings that have no remote
// calendar mirror. Deletion skips remote cleanup for these ids.
const LocalEventPrefix = "local_event_"

// Duration is the fixed length of every meeting.
const Duration = time.Hour

// ErrNotAuthorized is returned when a deletion is attempted on a meeting
// that does not exist or was created by someone else. The two cases are
// deliberately indistinguishable to the caller.
var ErrNotAuthorized = errors.New("meeting: not found or not authorized")

// Manager orchestrates meeting lifecycle operations against the store and
// the optional calendar gateway.
type Manager struct {
	db      *gorm.DB
	gateway calendar.Gateway // nil when mirroring is not configured
	now     func() time.Time
}

// ManagerOpts holds parameters for creating a Manager.
type ManagerOpts struct {
	DB      *gorm.DB
	Gateway calendar.Gateway // optional
	Now     func() time.Time // defaults to time.Now
}

// NewManager creates a Manager.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("meeting: manager: db is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{db: opts.DB, gateway: opts.Gateway, now: now}, nil
}

// CreateInput carries the validated fields of a completed creation dialogue.
type CreateInput struct {
	Title       string
	Description string
	Start       time.Time
	CreatorID   string
	CreatorName string
}

// EventRef is the tagged outcome of the mirror step: either a remote
// calendar event or a locally synthesized id. Producing it before the store
// write keeps the persistence path free of gateway branching.
type EventRef struct {
	ID     string
	Link   string
	Remote bool
}

// Create persists a new meeting. The calendar mirror is strictly
// best-effort: any gateway failure is logged and degraded to a local event
// id. Only a store failure fails the operation.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Meeting, error) {
	end := in.Start.Add(Duration)
	ref := m.mirror(ctx, in, end)

	meeting := models.Meeting{
		EventID:         ref.ID,
		CreatorID:       in.CreatorID,
		CreatorUsername: in.CreatorName,
		Title:           in.Title,
		Description:     in.Description,
		StartTime:       in.Start,
		EndTime:         end,
		CalendarLink:    ref.Link,
	}
	if err := m.db.Create(&meeting).Error; err != nil {
		return nil, fmt.Errorf("meeting: create: %w", err)
	}
	return &meeting, nil
}

// mirror attempts the remote calendar event and falls back to a synthetic
// local id on any failure, including the gateway being absent entirely.
func (m *Manager) mirror(ctx context.Context, in CreateInput, end time.Time) EventRef {
	if m.gateway != nil {
		remote, err := m.gateway.CreateEvent(ctx, calendar.Event{
			Summary:     in.Title,
			Description: fmt.Sprintf("%s\n\nCreated by: @%s", in.Description, in.CreatorName),
			Start:       in.Start.UTC(),
			End:         end.UTC(),
		})
		if err == nil {
			return EventRef{ID: remote.ID, Link: remote.Link, Remote: true}
		}
		log.Printf("meeting: calendar mirror failed, storing local-only event: %v", err)
	}
	return EventRef{ID: localEventID(m.now())}
}

// localEventID synthesizes a unique local id from a high-resolution timestamp.
func localEventID(t time.Time) string {
	return fmt.Sprintf("%s%d", LocalEventPrefix, t.UnixNano())
}

// IsLocalEvent reports whether an event id is local-only (no remote mirror).
func IsLocalEvent(eventID string) bool {
	return strings.HasPrefix(eventID, LocalEventPrefix)
}

// Delete removes a meeting and all its registrations. Only the creator may
// delete; anyone else (or a missing meeting) gets ErrNotAuthorized with
// nothing deleted. Remote calendar cleanup is attempted first and is
// best-effort; the local cascade runs in a single transaction regardless.
func (m *Manager) Delete(ctx context.Context, meetingID uint, requesterID string) error {
	meeting, err := m.GetByID(meetingID)
	if err != nil {
		return err
	}
	if meeting == nil || meeting.CreatorID != requesterID {
		return ErrNotAuthorized
	}

	if m.gateway != nil && !IsLocalEvent(meeting.EventID) {
		if err := m.gateway.DeleteEvent(ctx, meeting.EventID); err != nil {
			log.Printf("meeting: remote calendar cleanup failed for %s: %v", meeting.EventID, err)
		}
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.Registration{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Meeting{}, meetingID).Error
	})
	if err != nil {
		return fmt.Errorf("meeting: delete %d: %w", meetingID, err)
	}
	return nil
}

// ListUpcoming returns meetings starting strictly after now, soonest first.
func (m *Manager) ListUpcoming() ([]models.Meeting, error) {
	var meetings []models.Meeting
	result := m.db.Where("start_time > ?", m.now()).
		Order("start_time ASC").Find(&meetings)
	if result.Error != nil {
		return nil, fmt.Errorf("meeting: list upcoming: %w", result.Error)
	}
	return meetings, nil
}

// ListByCreator returns all meetings created by a user, past ones included,
// ascending by start time.
func (m *Manager) ListByCreator(creatorID string) ([]models.Meeting, error) {
	var meetings []models.Meeting
	result := m.db.Where("creator_id = ?", creatorID).
		Order("start_time ASC").Find(&meetings)
	if result.Error != nil {
		return nil, fmt.Errorf("meeting: list by creator: %w", result.Error)
	}
	return meetings, nil
}

// GetByID fetches a meeting. Returns (nil, nil) when it does not exist.
func (m *Manager) GetByID(meetingID uint) (*models.Meeting, error) {
	var meeting models.Meeting
	err := m.db.First(&meeting, meetingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("meeting: get %d: %w", meetingID, err)
	}
	return &meeting, nil
}
