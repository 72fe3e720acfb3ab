package models

import (
	"time"
)

// Discussion is a free-standing topic. Like events it can host comments; unlike
// events it can itself be voted on.
type Discussion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatorID  uint      `gorm:"not null;index" json:"creator_id"`
	Creator    User      `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator"`
	Title      string    `gorm:"not null" json:"title"`
	Content    string    `gorm:"type:text" json:"content"`
	Category   string    `gorm:"size:50;index" json:"category"`
	ThumbsUp   int       `gorm:"not null;default:0" json:"thumbs_up"`
	ThumbsDown int       `gorm:"not null;default:0" json:"thumbs_down"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
