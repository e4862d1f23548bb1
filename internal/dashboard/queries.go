package dashboard

import (
	"errors"
	"time"

	"github.com/zulandar/quorum/internal/models"
	"gorm.io/gorm"
)

// MeetingRow holds meeting data for the list view.
type MeetingRow struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	CreatorID       string    `json:"creator_id"`
	CreatorUsername string    `json:"creator_username,omitempty"`
	CalendarLink    string    `json:"calendar_link,omitempty"`
	Registered      int64     `json:"registered"`
}

// MeetingFilters holds optional filters for the meeting list.
type MeetingFilters struct {
	IncludePast bool
	CreatorID   string
}

// MeetingList returns meetings matching filters, soonest first.
func MeetingList(db *gorm.DB, filters MeetingFilters) ([]MeetingRow, error) {
	q := db.Model(&models.Meeting{})
	if !filters.IncludePast {
		q = q.Where("start_time > ?", time.Now().UTC())
	}
	if filters.CreatorID != "" {
		q = q.Where("creator_id = ?", filters.CreatorID)
	}

	var meetings []models.Meeting
	if err := q.Order("start_time ASC").Find(&meetings).Error; err != nil {
		return nil, err
	}

	rows := make([]MeetingRow, len(meetings))
	for i, m := range meetings {
		var count int64
		db.Model(&models.Registration{}).Where("meeting_id = ?", m.ID).Count(&count)
		rows[i] = MeetingRow{
			ID:              m.ID,
			Title:           m.Title,
			Description:     m.Description,
			StartTime:       m.StartTime,
			EndTime:         m.EndTime,
			CreatorID:       m.CreatorID,
			CreatorUsername: m.CreatorUsername,
			CalendarLink:    m.CalendarLink,
			Registered:      count,
		}
	}
	return rows, nil
}

// RegistrationRow holds a roster entry for display.
type RegistrationRow struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// MeetingDetail holds full meeting data plus the roster.
type MeetingDetail struct {
	ID              uint              `json:"id"`
	EventID         string            `json:"event_id"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	CreatorID       string            `json:"creator_id"`
	CreatorUsername string            `json:"creator_username,omitempty"`
	CalendarLink    string            `json:"calendar_link,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Registrations   []RegistrationRow `json:"registrations"`
}

// GetMeetingDetail returns a meeting with its roster in registration order,
// or nil if no such meeting exists.
func GetMeetingDetail(db *gorm.DB, id uint) (*MeetingDetail, error) {
	var m models.Meeting
	err := db.Preload("Registrations", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("registered_at ASC, id ASC")
	}).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	detail := &MeetingDetail{
		ID:              m.ID,
		EventID:         m.EventID,
		Title:           m.Title,
		Description:     m.Description,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		CreatorID:       m.CreatorID,
		CreatorUsername: m.CreatorUsername,
		CalendarLink:    m.CalendarLink,
		CreatedAt:       m.CreatedAt,
		Registrations:   make([]RegistrationRow, len(m.Registrations)),
	}
	for i, r := range m.Registrations {
		detail.Registrations[i] = RegistrationRow{
			UserID:       r.UserID,
			Username:     r.Username,
			RegisteredAt: r.RegisteredAt,
		}
	}
	return detail, nil
}

// StoreStats holds aggregate counts for the stats endpoint.
type StoreStats struct {
	TotalMeetings      int64 `json:"total_meetings"`
	UpcomingMeetings   int64 `json:"upcoming_meetings"`
	TotalRegistrations int64 `json:"total_registrations"`
}

// Stats returns aggregate counts over the store.
func Stats(db *gorm.DB) (StoreStats, error) {
	var s StoreStats
	if err := db.Model(&models.Meeting{}).Count(&s.TotalMeetings).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.Meeting{}).
		Where("start_time > ?", time.Now().UTC()).
		Count(&s.UpcomingMeetings).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.Registration{}).Count(&s.TotalRegistrations).Error; err != nil {
		return s, err
	}
	return s, nil
}
