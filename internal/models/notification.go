package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeEventJoin         NotificationType = "event_join"
	NotificationTypeEventWaitlist     NotificationType = "event_waitlist"
	NotificationTypeEventLeave        NotificationType = "event_leave"
	NotificationTypeWaitlistPromoted  NotificationType = "waitlist_promoted"
	NotificationTypeCommentEvent      NotificationType = "comment_event"
	NotificationTypeCommentDiscussion NotificationType = "comment_discussion"
	NotificationTypeReplyComment      NotificationType = "reply_comment"
)

type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;index" json:"user_id"` // Receiver
	SenderID    *uint            `gorm:"index" json:"sender_id"`
	SenderImage string           `json:"sender_image,omitempty"`
	Type        NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Text        string           `gorm:"type:text" json:"text"`
	RelatedID   uint             `gorm:"index" json:"related_id"` // event, discussion or comment id depending on Type
	IsRead      bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}
