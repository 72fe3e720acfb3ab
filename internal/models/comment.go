package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrInvalidHost = errors.New("comment must reference exactly one of event or discussion")

// Comment columns EventID and DiscussionID are mutually exclusive. Code outside
// this file goes through Host/SetHost and never touches them directly.
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	EventID         *uint     `gorm:"index;check:chk_comments_single_host,(event_id IS NULL) <> (discussion_id IS NULL)" json:"-"`
	DiscussionID    *uint     `gorm:"index" json:"-"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	User            User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentCommentID *uint     `gorm:"index" json:"parent_comment_id"` // nil for top-level comments
	Content         string    `gorm:"type:text;not null" json:"content"`
	ThumbsUp        int       `gorm:"not null;default:0" json:"thumbs_up"`
	ThumbsDown      int       `gorm:"not null;default:0" json:"thumbs_down"`
	CreatedAt       time.Time `json:"created_at"`
}

// Host returns the comment's host, or ErrInvalidHost when the row violates
// the single-host rule.
func (c *Comment) Host() (Host, error) {
	switch {
	case c.EventID != nil && c.DiscussionID == nil:
		return EventHost(*c.EventID), nil
	case c.DiscussionID != nil && c.EventID == nil:
		return DiscussionHost(*c.DiscussionID), nil
	}
	return Host{}, ErrInvalidHost
}

func (c *Comment) SetHost(h Host) error {
	id := h.ID
	switch h.Kind {
	case HostEvent:
		c.EventID, c.DiscussionID = &id, nil
	case HostDiscussion:
		c.EventID, c.DiscussionID = nil, &id
	default:
		return ErrInvalidHost
	}
	return nil
}

func (c *Comment) BeforeSave(tx *gorm.DB) error {
	_, err := c.Host()
	return err
}
