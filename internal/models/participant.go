package models

import (
	"time"
)

type ParticipantStatus string

const (
	StatusConfirmed ParticipantStatus = "confirmed"
	StatusWaiting   ParticipantStatus = "waiting"
)

// Participant is one user's seat (or place in line) for an event.
// Waiting participants are promoted in JoinedAt order, ties broken by ID.
type Participant struct {
	ID       uint              `gorm:"primaryKey" json:"id"`
	EventID  uint              `gorm:"not null;uniqueIndex:idx_participant_event_user" json:"event_id"`
	Event    Event             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID   uint              `gorm:"not null;uniqueIndex:idx_participant_event_user;index" json:"user_id"`
	User     User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Status   ParticipantStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	JoinedAt time.Time         `gorm:"not null;index" json:"joined_at"`
}
