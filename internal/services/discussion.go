package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"courtside/internal/models"
	"courtside/internal/utils"

	"gorm.io/gorm"
)

type CreateDiscussionInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type ListDiscussionsQuery struct {
	Category string
	Sort     string // new (default), top or hot
	Page     int
	PageSize int
}

// DiscussionView is a discussion with the viewer's vote and its comment count.
type DiscussionView struct {
	models.Discussion
	ContentHTML  string     `json:"content_html"`
	CommentCount int64      `json:"comment_count"`
	UserVote     *VoteState `json:"user_vote"`
}

// hotWindow is how many recent discussions are scored for the hot listing.
const hotWindow = 200

// DiscussionService serves discussions and the comment threads of both hosts.
// Comment operations behave the same whether the host is an event or a
// discussion.
type DiscussionService struct {
	db       *gorm.DB
	tree     *CommentTree
	votes    *VoteCounter
	notifier Notifier
	cache    *CommentCache
	now      func() time.Time
}

func NewDiscussionService(db *gorm.DB, notifier Notifier, cache *CommentCache) *DiscussionService {
	return &DiscussionService{
		db:       db,
		tree:     NewCommentTree(),
		votes:    NewVoteCounter(),
		notifier: notifier,
		cache:    cache,
		now:      time.Now,
	}
}

func (s *DiscussionService) CreateDiscussion(ctx context.Context, creatorID uint, in CreateDiscussionInput) (models.Discussion, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Discussion{}, invalidArgument("empty_title", "discussion title is required")
	}
	d := models.Discussion{
		CreatorID: creatorID,
		Title:     in.Title,
		Content:   in.Content,
		Category:  strings.TrimSpace(in.Category),
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return models.Discussion{}, storeError("insert discussion", err)
	}
	return d, nil
}

// GetDiscussion reconciles the vote counters before returning the discussion.
func (s *DiscussionService) GetDiscussion(ctx context.Context, id, viewerID uint) (DiscussionView, error) {
	var view DiscussionView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, _, err := s.votes.Reconcile(tx, TargetDiscussion, id); err != nil {
			return err
		}
		if err := tx.Preload("Creator").Where("id = ?", id).Take(&view.Discussion).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("discussion_id = ?", id).Count(&view.CommentCount).Error; err != nil {
			return err
		}
		mine, err := s.votes.UserVotes(tx, TargetDiscussion, viewerID, []uint{id})
		if err != nil {
			return err
		}
		if v, ok := mine[id]; ok {
			view.UserVote = &v
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return view, notFound("discussion_not_found", "discussion #%d not found", id)
	}
	if err != nil {
		return view, storeError("get discussion", err)
	}
	view.ContentHTML = utils.RenderMarkdown(view.Content)
	return view, nil
}

func (s *DiscussionService) ListDiscussions(ctx context.Context, q ListDiscussionsQuery) ([]models.Discussion, int64, error) {
	page, size := normalizePage(q.Page, q.PageSize)

	db := s.db.WithContext(ctx)
	filtered := func() *gorm.DB {
		query := db.Model(&models.Discussion{})
		if q.Category != "" {
			query = query.Where("category = ?", q.Category)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, storeError("count discussions", err)
	}

	if q.Sort == "hot" {
		// Only the newest hotWindow discussions are ranked.
		total = min(total, hotWindow)
		items, err := s.listHot(db, filtered(), page, size)
		return items, total, err
	}

	order := "created_at DESC, id DESC"
	if q.Sort == "top" {
		order = "(thumbs_up - thumbs_down) DESC, created_at DESC, id DESC"
	}
	var items []models.Discussion
	err := filtered().Preload("Creator").
		Order(order).
		Offset((page - 1) * size).
		Limit(size).
		Find(&items).Error
	if err != nil {
		return nil, 0, storeError("list discussions", err)
	}
	return items, total, nil
}

// listHot scores the most recent discussions by votes, comments and age.
func (s *DiscussionService) listHot(db, query *gorm.DB, page, size int) ([]models.Discussion, error) {
	var recent []models.Discussion
	if err := query.Preload("Creator").Order("created_at DESC, id DESC").Limit(hotWindow).Find(&recent).Error; err != nil {
		return nil, storeError("list discussions", err)
	}
	if len(recent) == 0 {
		return recent, nil
	}

	ids := make([]uint, len(recent))
	for i, d := range recent {
		ids[i] = d.ID
	}
	var counts []struct {
		DiscussionID uint
		Total        int
	}
	err := db.Model(&models.Comment{}).
		Select("discussion_id, COUNT(*) AS total").
		Where("discussion_id IN ?", ids).
		Group("discussion_id").
		Scan(&counts).Error
	if err != nil {
		return nil, storeError("count comments", err)
	}
	comments := make(map[uint]int, len(counts))
	for _, c := range counts {
		comments[c.DiscussionID] = c.Total
	}

	now := s.now()
	scores := make(map[uint]float64, len(recent))
	for _, d := range recent {
		scores[d.ID] = utils.CalculateScore(d.CreatedAt, now, d.ThumbsUp, d.ThumbsDown, comments[d.ID])
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return scores[recent[i].ID] > scores[recent[j].ID]
	})

	start := (page - 1) * size
	if start >= len(recent) {
		return []models.Discussion{}, nil
	}
	end := start + size
	if end > len(recent) {
		end = len(recent)
	}
	return recent[start:end], nil
}

// DeleteDiscussion removes the discussion with its comments and every vote on
// either. Only the creator may delete it.
func (s *DiscussionService) DeleteDiscussion(ctx context.Context, id, requesterID uint) error {
	host := models.DiscussionHost(id)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := LoadHost(tx, host)
		if err != nil {
			return err
		}
		if rec.CreatorID != requesterID {
			return forbidden("not_discussion_creator", "only the creator can delete discussion #%d", id)
		}
		if _, err := s.tree.DeleteForHost(tx, host); err != nil {
			return err
		}
		if _, err := s.votes.RemoveAll(tx, TargetDiscussion, id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Discussion{}, id).Error; err != nil {
			return storeError("delete discussion", err)
		}
		return nil
	})
	if err != nil {
		return storeError("delete discussion", err)
	}
	s.cache.Invalidate(host)
	return nil
}

// AddComment posts a comment or reply under host. The host's creator is
// notified, and so is the parent's author for a reply.
func (s *DiscussionService) AddComment(ctx context.Context, host models.Host, userID uint, content string, parentID *uint) (CommentView, error) {
	var (
		comment      models.Comment
		rec          HostRecord
		parentAuthor uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		comment, rec, err = s.tree.Create(tx, host, userID, content, parentID)
		if err != nil {
			return err
		}
		if parentID != nil {
			parent, err := s.tree.Get(tx, *parentID)
			if err != nil {
				return err
			}
			parentAuthor = parent.UserID
		}
		return nil
	})
	if err != nil {
		return CommentView{}, storeError("add comment", err)
	}
	s.cache.Invalidate(host)

	actor := loadActor(s.db, userID)
	comment.User = actor

	t := models.NotificationTypeCommentEvent
	if host.Kind == models.HostDiscussion {
		t = models.NotificationTypeCommentDiscussion
	}
	n := notificationFrom(actor, rec.CreatorID, t, host.ID)
	n.Text = fmt.Sprintf("%s commented on %s", actor.Username, rec.Title)
	s.notify(n)

	if parentAuthor != 0 && parentAuthor != rec.CreatorID {
		reply := notificationFrom(actor, parentAuthor, models.NotificationTypeReplyComment, comment.ID)
		reply.Text = fmt.Sprintf("%s replied to your comment on %s", actor.Username, rec.Title)
		s.notify(reply)
	}

	return CommentView{
		Comment:     comment,
		Host:        host,
		ContentHTML: utils.RenderMarkdown(comment.Content),
	}, nil
}

// DeleteComment removes the comment and its replies. The requester must be
// the comment's author or the creator of its host.
func (s *DiscussionService) DeleteComment(ctx context.Context, commentID, requesterID uint) (DeleteResult, error) {
	return s.deleteComment(ctx, nil, commentID, requesterID)
}

// DeleteHostComment is DeleteComment for a comment addressed through host. A
// comment that lives under another host is rejected with an error naming it.
func (s *DiscussionService) DeleteHostComment(ctx context.Context, host models.Host, commentID, requesterID uint) (DeleteResult, error) {
	return s.deleteComment(ctx, &host, commentID, requesterID)
}

func (s *DiscussionService) deleteComment(ctx context.Context, expect *models.Host, commentID, requesterID uint) (DeleteResult, error) {
	var (
		res  DeleteResult
		host models.Host
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comment, err := s.tree.Get(tx, commentID)
		if err != nil {
			return err
		}
		host, err = comment.Host()
		if err != nil {
			return storeError("comment host", err)
		}
		if expect != nil && *expect != host {
			return wrongHost(commentID, *expect, host)
		}
		rec, err := LoadHost(tx, host)
		if err != nil {
			return err
		}
		if requesterID != comment.UserID && requesterID != rec.CreatorID {
			return forbidden("not_comment_owner", "user #%d may not delete comment #%d", requesterID, commentID)
		}
		res, err = s.tree.DeleteSubtree(tx, commentID)
		return err
	})
	if err != nil {
		return DeleteResult{}, storeError("delete comment", err)
	}
	s.cache.Invalidate(host)
	return res, nil
}

// VoteOnTarget votes on a comment or a discussion by id.
func (s *DiscussionService) VoteOnTarget(ctx context.Context, kind TargetKind, targetID, userID uint, direction string) (Tally, error) {
	dir, err := ParseDirection(direction)
	if err != nil {
		return Tally{}, err
	}
	if _, err := lookupTarget(kind); err != nil {
		return Tally{}, err
	}

	var (
		tally Tally
		host  models.Host
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tally, err = s.votes.Vote(tx, kind, targetID, userID, dir)
		if err != nil || kind != TargetComment {
			return err
		}
		host, err = s.tree.ResolveHost(tx, targetID)
		return err
	})
	if err != nil {
		return Tally{}, storeError("vote", err)
	}
	if kind == TargetComment {
		s.cache.Invalidate(host)
	}
	return tally, nil
}

// VoteOnHostComment votes on a comment addressed through host and rejects a
// comment that lives under another host with an error naming it.
func (s *DiscussionService) VoteOnHostComment(ctx context.Context, host models.Host, commentID, userID uint, direction string) (Tally, error) {
	dir, err := ParseDirection(direction)
	if err != nil {
		return Tally{}, err
	}

	var tally Tally
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actual, err := s.tree.ResolveHost(tx, commentID)
		if err != nil {
			return err
		}
		if actual != host {
			return wrongHost(commentID, host, actual)
		}
		tally, err = s.votes.Vote(tx, TargetComment, commentID, userID, dir)
		return err
	})
	if err != nil {
		return Tally{}, storeError("vote", err)
	}
	s.cache.Invalidate(host)
	return tally, nil
}

// ListComments returns the host's comments in creation order with the
// viewer's own votes filled in. viewerID 0 means an anonymous viewer.
func (s *DiscussionService) ListComments(ctx context.Context, host models.Host, viewerID uint) ([]CommentView, error) {
	db := s.db.WithContext(ctx)
	if _, err := LoadHost(db, host); err != nil {
		return nil, err
	}

	shared, ok := s.cache.get(host)
	if !ok {
		gen := s.cache.generation(host)
		comments, err := s.tree.List(db, host)
		if err != nil {
			return nil, err
		}
		shared = make([]CommentView, len(comments))
		for i, c := range comments {
			shared[i] = CommentView{
				Comment:     c,
				Host:        host,
				ContentHTML: utils.RenderMarkdown(c.Content),
			}
		}
		s.cache.set(host, shared, gen)
	}

	views := make([]CommentView, len(shared))
	copy(views, shared)
	if viewerID == 0 || len(views) == 0 {
		return views, nil
	}

	ids := make([]uint, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	mine, err := s.votes.UserVotes(db, TargetComment, viewerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if v, ok := mine[views[i].ID]; ok {
			views[i].UserVote = &v
		}
	}
	return views, nil
}

func (s *DiscussionService) notify(n models.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}
