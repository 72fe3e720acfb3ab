package services

import (
	"errors"
	"strings"

	"courtside/internal/models"

	"gorm.io/gorm"
)

// CommentTree owns comment rows: creation under a host, parentage and
// subtree deletion. Methods run on the caller's transaction.
type CommentTree struct{}

func NewCommentTree() *CommentTree {
	return &CommentTree{}
}

// HostRecord is the part of an event or discussion the comment engine needs.
type HostRecord struct {
	Host      models.Host
	CreatorID uint
	Title     string
}

// LoadHost fails with NotFound when the event/discussion does not exist.
func LoadHost(tx *gorm.DB, host models.Host) (HostRecord, error) {
	var row struct {
		ID        uint
		CreatorID uint
		Title     string
	}
	var q *gorm.DB
	switch host.Kind {
	case models.HostEvent:
		q = tx.Model(&models.Event{})
	case models.HostDiscussion:
		q = tx.Model(&models.Discussion{})
	default:
		return HostRecord{}, invalidArgument("invalid_host_kind", "unknown host kind %q", host.Kind)
	}
	err := q.Select("id", "creator_id", "title").Where("id = ?", host.ID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return HostRecord{}, notFound(string(host.Kind)+"_not_found", "%s not found", host)
	}
	if err != nil {
		return HostRecord{}, storeError("load "+string(host.Kind), err)
	}
	return HostRecord{Host: host, CreatorID: row.CreatorID, Title: row.Title}, nil
}

func hostColumn(kind models.HostKind) string {
	if kind == models.HostDiscussion {
		return "discussion_id"
	}
	return "event_id"
}

// Get loads a single comment or fails with NotFound.
func (t *CommentTree) Get(tx *gorm.DB, commentID uint) (models.Comment, error) {
	var c models.Comment
	err := tx.Where("id = ?", commentID).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, notFound("comment_not_found", "comment #%d not found", commentID)
	}
	if err != nil {
		return c, storeError("load comment", err)
	}
	return c, nil
}

// ResolveHost reports which event or discussion the comment belongs to.
func (t *CommentTree) ResolveHost(tx *gorm.DB, commentID uint) (models.Host, error) {
	c, err := t.Get(tx, commentID)
	if err != nil {
		return models.Host{}, err
	}
	h, err := c.Host()
	if err != nil {
		return models.Host{}, storeError("comment host", err)
	}
	return h, nil
}

// Create inserts a comment under host. A parent, when given, must live under
// the same host.
func (t *CommentTree) Create(tx *gorm.DB, host models.Host, authorID uint, content string, parentID *uint) (models.Comment, HostRecord, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, HostRecord{}, invalidArgument("empty_content", "comment content is required")
	}

	rec, err := LoadHost(tx, host)
	if err != nil {
		return models.Comment{}, HostRecord{}, err
	}

	if parentID != nil {
		var count int64
		err := tx.Model(&models.Comment{}).
			Where("id = ? AND "+hostColumn(host.Kind)+" = ?", *parentID, host.ID).
			Count(&count).Error
		if err != nil {
			return models.Comment{}, HostRecord{}, storeError("load parent comment", err)
		}
		if count == 0 {
			return models.Comment{}, HostRecord{}, notFound("parent_not_found", "parent comment #%d not found under %s", *parentID, host)
		}
	}

	c := models.Comment{
		UserID:          authorID,
		ParentCommentID: parentID,
		Content:         content,
	}
	if err := c.SetHost(host); err != nil {
		return models.Comment{}, HostRecord{}, invalidArgument("invalid_host_kind", "%v", err)
	}
	if err := tx.Create(&c).Error; err != nil {
		return models.Comment{}, HostRecord{}, storeError("insert comment", err)
	}
	return c, rec, nil
}

// DeleteResult counts the rows removed by a subtree delete.
type DeleteResult struct {
	CommentIDs []uint
	Votes      int64
}

// subtreeBatch bounds the IN list of a single replies lookup.
const subtreeBatch = 500

// subtree returns root and all its descendants ordered so every node comes
// after its parent. The walk keeps an explicit frontier, so reply depth does
// not grow the call stack.
func (t *CommentTree) subtree(tx *gorm.DB, rootID uint) ([]uint, error) {
	ids := []uint{rootID}
	seen := map[uint]bool{rootID: true}
	frontier := []uint{rootID}
	for len(frontier) > 0 {
		batch := frontier
		if len(batch) > subtreeBatch {
			batch = frontier[:subtreeBatch]
		}
		frontier = frontier[len(batch):]

		var children []uint
		err := tx.Model(&models.Comment{}).
			Where("parent_comment_id IN ?", batch).
			Order("id ASC").
			Pluck("id", &children).Error
		if err != nil {
			return nil, storeError("load replies", err)
		}
		for _, id := range children {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
			frontier = append(frontier, id)
		}
	}
	return ids, nil
}

// DeleteSubtree removes the comment, every reply below it and all their votes.
// Children are removed before their parents, and each node's votes before the
// node itself.
func (t *CommentTree) DeleteSubtree(tx *gorm.DB, rootID uint) (DeleteResult, error) {
	ids, err := t.subtree(tx, rootID)
	if err != nil {
		return DeleteResult{}, err
	}

	var res DeleteResult
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		votes := tx.Where("comment_id = ?", id).Delete(&models.CommentVote{})
		if votes.Error != nil {
			return DeleteResult{}, storeError("delete comment votes", votes.Error)
		}
		res.Votes += votes.RowsAffected

		if err := tx.Delete(&models.Comment{}, id).Error; err != nil {
			return DeleteResult{}, storeError("delete comment", err)
		}
		res.CommentIDs = append(res.CommentIDs, id)
	}
	return res, nil
}

// DeleteForHost removes the whole comment forest under host.
func (t *CommentTree) DeleteForHost(tx *gorm.DB, host models.Host) (DeleteResult, error) {
	var roots []uint
	err := tx.Model(&models.Comment{}).
		Where(hostColumn(host.Kind)+" = ? AND parent_comment_id IS NULL", host.ID).
		Pluck("id", &roots).Error
	if err != nil {
		return DeleteResult{}, storeError("load root comments", err)
	}

	var total DeleteResult
	for _, id := range roots {
		res, err := t.DeleteSubtree(tx, id)
		if err != nil {
			return DeleteResult{}, err
		}
		total.CommentIDs = append(total.CommentIDs, res.CommentIDs...)
		total.Votes += res.Votes
	}

	// Replies whose parent row is already gone would otherwise survive.
	var strays []uint
	if err := tx.Model(&models.Comment{}).Where(hostColumn(host.Kind)+" = ?", host.ID).Pluck("id", &strays).Error; err != nil {
		return DeleteResult{}, storeError("load remaining comments", err)
	}
	if len(strays) > 0 {
		votes := tx.Where("comment_id IN ?", strays).Delete(&models.CommentVote{})
		if votes.Error != nil {
			return DeleteResult{}, storeError("delete comment votes", votes.Error)
		}
		if err := tx.Where("id IN ?", strays).Delete(&models.Comment{}).Error; err != nil {
			return DeleteResult{}, storeError("delete comments", err)
		}
		total.CommentIDs = append(total.CommentIDs, strays...)
		total.Votes += votes.RowsAffected
	}
	return total, nil
}

// List returns the comments under host in creation order.
func (t *CommentTree) List(tx *gorm.DB, host models.Host) ([]models.Comment, error) {
	var comments []models.Comment
	err := tx.Preload("User").
		Where(hostColumn(host.Kind)+" = ?", host.ID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, storeError("list comments", err)
	}
	return comments, nil
}
