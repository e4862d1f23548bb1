package meeting

import (
	"errors"
	"fmt"

	"github.com/zulandar/quorum/internal/models"
	"gorm.io/gorm"
)

// RegisterOutcome is the result of a registration attempt.
type RegisterOutcome int

const (
	// Registered means a new registration row was created.
	Registered RegisterOutcome = iota
	// AlreadyRegistered means the user had registered before. This is an
	// expected, common outcome, not an error, and is never logged as one.
	AlreadyRegistered
)

// Register records that a user will attend a meeting. A duplicate
// (meeting, user) pair yields AlreadyRegistered; any other store failure is
// a genuine error.
func (m *Manager) Register(meetingID uint, userID, userName string) (RegisterOutcome, error) {
	reg := models.Registration{
		MeetingID: meetingID,
		UserID:    userID,
		Username:  userName,
	}
	err := m.db.Create(&reg).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return AlreadyRegistered, nil
	}
	if err != nil {
		return 0, fmt.Errorf("meeting: register user %s for %d: %w", userID, meetingID, err)
	}
	return Registered, nil
}

// Count returns the number of registrations for a meeting.
func (m *Manager) Count(meetingID uint) (int64, error) {
	var count int64
	result := m.db.Model(&models.Registration{}).
		Where("meeting_id = ?", meetingID).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("meeting: count registrations for %d: %w", meetingID, result.Error)
	}
	return count, nil
}

// Roster returns a meeting's registrations in registration order
// (first-come-first-listed).
func (m *Manager) Roster(meetingID uint) ([]models.Registration, error) {
	var regs []models.Registration
	result := m.db.Where("meeting_id = ?", meetingID).
		Order("registered_at ASC, id ASC").Find(&regs)
	if result.Error != nil {
		return nil, fmt.Errorf("meeting: roster for %d: %w", meetingID, result.Error)
	}
	return regs, nil
}
