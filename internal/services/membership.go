package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtside/internal/models"

	"gorm.io/gorm"
)

type CreateEventInput struct {
	Title       string    `json:"title"`
	Sport       string    `json:"sport"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	MaxPlayers  int       `json:"max_players"`
}

type ListEventsQuery struct {
	Sport    string
	Upcoming bool
	Page     int
	PageSize int
}

// MembershipService runs event lifecycle and join/leave requests. Each call is
// one transaction; notifications go out only after it commits.
type MembershipService struct {
	db       *gorm.DB
	ledger   *ParticipationLedger
	tree     *CommentTree
	notifier Notifier
	cache    *CommentCache
	now      func() time.Time
}

func NewMembershipService(db *gorm.DB, notifier Notifier, cache *CommentCache) *MembershipService {
	return &MembershipService{
		db:       db,
		ledger:   NewParticipationLedger(),
		tree:     NewCommentTree(),
		notifier: notifier,
		cache:    cache,
		now:      time.Now,
	}
}

func (s *MembershipService) CreateEvent(ctx context.Context, creatorID uint, in CreateEventInput) (models.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Event{}, invalidArgument("empty_title", "event title is required")
	}
	if in.MaxPlayers < 1 {
		return models.Event{}, invalidArgument("invalid_capacity", "max_players must be at least 1, got %d", in.MaxPlayers)
	}

	event := models.Event{
		CreatorID:   creatorID,
		Title:       in.Title,
		Sport:       strings.TrimSpace(in.Sport),
		Location:    strings.TrimSpace(in.Location),
		Description: in.Description,
		StartsAt:    in.StartsAt,
		MaxPlayers:  in.MaxPlayers,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return models.Event{}, storeError("insert event", err)
	}
	return event, nil
}

// GetEvent reconciles current_players before returning the event.
func (s *MembershipService) GetEvent(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ledger.Reconcile(tx, id); err != nil {
			return err
		}
		return tx.Preload("Creator").Where("id = ?", id).Take(&event).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return event, notFound("event_not_found", "event #%d not found", id)
	}
	if err != nil {
		return event, storeError("get event", err)
	}
	return event, nil
}

func (s *MembershipService) ListEvents(ctx context.Context, q ListEventsQuery) ([]models.Event, int64, error) {
	page, size := normalizePage(q.Page, q.PageSize)

	now := s.now()
	filtered := func(db *gorm.DB) *gorm.DB {
		query := db.Model(&models.Event{})
		if q.Sport != "" {
			query = query.Where("sport = ?", q.Sport)
		}
		if q.Upcoming {
			query = query.Where("starts_at >= ?", now)
		}
		return query
	}

	var total int64
	if err := filtered(s.db.WithContext(ctx)).Count(&total).Error; err != nil {
		return nil, 0, storeError("count events", err)
	}

	var events []models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := filtered(tx).Preload("Creator").
			Order("starts_at ASC, id ASC").
			Offset((page - 1) * size).
			Limit(size).
			Find(&events).Error
		if err != nil {
			return err
		}
		return s.ledger.ReconcileEvents(tx, events)
	})
	if err != nil {
		return nil, 0, storeError("list events", err)
	}
	return events, total, nil
}

// DeleteEvent removes the event with its comments, their votes and all
// participant rows. Only the creator may delete it.
func (s *MembershipService) DeleteEvent(ctx context.Context, id, requesterID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, id)
		if err != nil {
			return err
		}
		if event.CreatorID != requesterID {
			return forbidden("not_event_creator", "only the creator can delete event #%d", id)
		}
		if _, err := s.tree.DeleteForHost(tx, models.EventHost(id)); err != nil {
			return err
		}
		if err := s.ledger.RemoveAll(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Event{}, id).Error; err != nil {
			return storeError("delete event", err)
		}
		return nil
	})
	if err != nil {
		return storeError("delete event", err)
	}
	s.cache.Invalidate(models.EventHost(id))
	return nil
}

func (s *MembershipService) JoinEvent(ctx context.Context, eventID, userID uint) (JoinResult, error) {
	var res JoinResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.ledger.Join(tx, eventID, userID)
		return err
	})
	if err != nil {
		return JoinResult{}, storeError("join event", err)
	}

	actor := loadActor(s.db, userID)
	n := notificationFrom(actor, res.Event.CreatorID, models.NotificationTypeEventJoin, eventID)
	n.Text = fmt.Sprintf("%s joined %s", actor.Username, res.Event.Title)
	if res.Participant.Status == models.StatusWaiting {
		n.Type = models.NotificationTypeEventWaitlist
		n.Text = fmt.Sprintf("%s joined the waiting list for %s", actor.Username, res.Event.Title)
	}
	s.notify(n)
	return res, nil
}

// LeaveEvent frees the user's seat or waiting spot. When a confirmed seat is
// freed the creator is told, and a promoted participant is told separately.
func (s *MembershipService) LeaveEvent(ctx context.Context, eventID, userID uint) (LeaveResult, error) {
	var res LeaveResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.ledger.Leave(tx, eventID, userID)
		return err
	})
	if err != nil {
		return LeaveResult{}, storeError("leave event", err)
	}

	if res.Left.Status == models.StatusConfirmed {
		actor := loadActor(s.db, userID)
		n := notificationFrom(actor, res.Event.CreatorID, models.NotificationTypeEventLeave, eventID)
		n.Text = fmt.Sprintf("%s left %s", actor.Username, res.Event.Title)
		s.notify(n)
	}
	if res.Promoted != nil {
		s.notify(models.Notification{
			UserID:    res.Promoted.UserID,
			Type:      models.NotificationTypeWaitlistPromoted,
			Text:      fmt.Sprintf("You have a confirmed spot in %s", res.Event.Title),
			RelatedID: eventID,
		})
	}
	return res, nil
}

// ListParticipants returns confirmed participants first, then the waiting
// list, each in join order.
func (s *MembershipService) ListParticipants(ctx context.Context, eventID uint) ([]models.Participant, error) {
	var participants []models.Participant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := LoadHost(tx, models.EventHost(eventID)); err != nil {
			return err
		}
		var err error
		participants, err = s.ledger.List(tx, eventID)
		return err
	})
	if err != nil {
		return nil, storeError("list participants", err)
	}
	return participants, nil
}

func (s *MembershipService) notify(n models.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}
