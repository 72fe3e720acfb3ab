package models

import (
	"time"
)

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// CommentVote and DiscussionVote hold at most one row per (target, user).
// The target's ThumbsUp/ThumbsDown must equal the counts in these tables.
type CommentVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_vote_user" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_vote_user;index" json:"user_id"`
	VoteType  VoteType  `gorm:"type:varchar(8);not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DiscussionVote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;uniqueIndex:idx_discussion_vote_user" json:"discussion_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_discussion_vote_user;index" json:"user_id"`
	VoteType     VoteType  `gorm:"type:varchar(8);not null" json:"vote_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
