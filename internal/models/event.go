package models

import (
	"time"
)

// Event is a pickup game or match that users join. CurrentPlayers is a
// denormalized count of confirmed participants and is only written by the
// participation ledger.
type Event struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatorID      uint      `gorm:"not null;index" json:"creator_id"`
	Creator        User      `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator"`
	Title          string    `gorm:"not null" json:"title"`
	Sport          string    `gorm:"size:50" json:"sport"`
	Location       string    `json:"location"`
	StartsAt       time.Time `gorm:"index" json:"starts_at"`
	Description    string    `gorm:"type:text" json:"description"`
	MaxPlayers     int       `gorm:"not null" json:"max_players"`
	CurrentPlayers int       `gorm:"not null;default:0" json:"current_players"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
