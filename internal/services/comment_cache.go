package services

import (
	"time"

	"courtside/internal/models"
	"courtside/internal/utils"
)

// CommentView is a comment as shown to a viewer.
type CommentView struct {
	models.Comment
	Host        models.Host `json:"host"`
	ContentHTML string      `json:"content_html"`
	UserVote    *VoteState  `json:"user_vote"` // nil when the viewer has not voted
}

// CommentCache holds the rendered, viewer-independent comment list of each
// host. A nil *CommentCache disables caching.
type CommentCache struct {
	lists *utils.TTLCache[models.Host, []CommentView]
}

func NewCommentCache(size int, ttl time.Duration) (*CommentCache, error) {
	lists, err := utils.NewTTLCache[models.Host, []CommentView](size, ttl)
	if err != nil {
		return nil, err
	}
	return &CommentCache{lists: lists}, nil
}

func (c *CommentCache) get(host models.Host) ([]CommentView, bool) {
	if c == nil {
		return nil, false
	}
	return c.lists.Get(host)
}

func (c *CommentCache) generation(host models.Host) uint64 {
	if c == nil {
		return 0
	}
	return c.lists.Generation(host)
}

func (c *CommentCache) set(host models.Host, views []CommentView, gen uint64) {
	if c == nil {
		return
	}
	c.lists.SetIfCurrent(host, views, gen)
}

// Invalidate drops the cached list of host.
func (c *CommentCache) Invalidate(host models.Host) {
	if c == nil {
		return
	}
	c.lists.Delete(host)
}
