// Package models defines the GORM models for Quorum's durable state.
package models

import "time"

// Meeting is a scheduled community event. EventID is either the remote
// calendar event id or a synthetic local id when no remote mirror exists.
type Meeting struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	EventID         string    `gorm:"size:128;not null"`
	CreatorID       string    `gorm:"size:64;index;not null"`
	CreatorUsername string    `gorm:"size:64"`
	Title           string    `gorm:"not null"`
	Description     string    `gorm:"type:text"`
	StartTime       time.Time `gorm:"index;not null"`
	EndTime         time.Time `gorm:"not null"`
	CalendarLink    string    `gorm:"size:512"`
	CreatedAt       time.Time

	Registrations []Registration `gorm:"foreignKey:MeetingID"`
}

// Registration records that a user intends to attend a meeting. The
// (meeting_id, user_id) pair is unique: re-registration must surface as a
// duplicate-key conflict, never a second row.
type Registration struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	MeetingID    uint      `gorm:"uniqueIndex:idx_registrations_meeting_user;not null"`
	UserID       string    `gorm:"size:64;uniqueIndex:idx_registrations_meeting_user;not null"`
	Username     string    `gorm:"size:64"`
	RegisteredAt time.Time `gorm:"autoCreateTime"`

	Meeting Meeting `gorm:"foreignKey:MeetingID"`
}
