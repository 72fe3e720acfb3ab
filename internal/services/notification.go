package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"courtside/internal/models"

	"gorm.io/gorm"
)

// Notifier is the fire-and-forget sink state transitions report to. It never
// returns an error; delivery problems are logged by the implementation.
type Notifier interface {
	Notify(n models.Notification)
}

// Publisher pushes a stored notification to live listeners.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

const (
	notifyBatchSize     = 50
	notifyFlushInterval = 500 * time.Millisecond
)

// NotificationService queues notifications and persists them from a
// background worker, so a slow or failing sink never holds up the request
// that caused them.
type NotificationService struct {
	db        *gorm.DB
	publisher Publisher
	mailer    Mailer
	queue     chan models.Notification
	quit      chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

type NotificationOption func(*NotificationService)

// WithPublisher fans stored notifications out to live listeners.
func WithPublisher(p Publisher) NotificationOption {
	return func(s *NotificationService) { s.publisher = p }
}

// WithMailer also emails waitlist promotions and comment replies.
func WithMailer(m Mailer) NotificationOption {
	return func(s *NotificationService) { s.mailer = m }
}

// NewNotificationService starts the background worker.
func NewNotificationService(db *gorm.DB, queueSize int, opts ...NotificationOption) *NotificationService {
	if queueSize <= 0 {
		queueSize = 1000
	}
	s := &NotificationService{
		db:    db,
		queue: make(chan models.Notification, queueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.worker()
	return s
}

// Notify enqueues n without blocking. Self-notifications are skipped, and when
// the queue is full the notification is dropped with a log line.
func (s *NotificationService) Notify(n models.Notification) {
	if n.UserID == 0 || (n.SenderID != nil && *n.SenderID == n.UserID) {
		return
	}
	if s.closed.Load() {
		log.Printf("notification service closed, dropping %s for user %d", n.Type, n.UserID)
		return
	}
	select {
	case s.queue <- n:
	default:
		log.Printf("notification queue full, dropping %s for user %d", n.Type, n.UserID)
	}
}

// Close stops accepting notifications, flushes what is queued and waits for
// the worker to exit.
func (s *NotificationService) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.quit)
	})
	<-s.done
}

func (s *NotificationService) worker() {
	defer close(s.done)

	batch := make([]models.Notification, 0, notifyBatchSize)
	ticker := time.NewTicker(notifyFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case n := <-s.queue:
			batch = append(batch, n)
			if len(batch) >= notifyBatchSize {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-s.quit:
		drain:
			for {
				select {
				case n := <-s.queue:
					batch = append(batch, n)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				s.processBatch(batch)
			}
			return
		}
	}
}

func (s *NotificationService) processBatch(batch []models.Notification) {
	rows := make([]models.Notification, len(batch))
	copy(rows, batch)

	if err := s.db.CreateInBatches(&rows, notifyBatchSize).Error; err != nil {
		log.Printf("persist %d notifications failed: %v", len(rows), err)
		return
	}
	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		for _, n := range rows {
			if err := s.publisher.Publish(ctx, n); err != nil {
				log.Printf("publish notification %d to user %d failed: %v", n.ID, n.UserID, err)
			}
		}
		cancel()
	}
	if s.mailer != nil {
		s.email(rows)
	}
}

func (s *NotificationService) email(rows []models.Notification) {
	for _, n := range rows {
		if !emailable(n.Type) {
			continue
		}
		var recipient models.User
		if err := s.db.Select("id", "username", "email").Where("id = ?", n.UserID).Take(&recipient).Error; err != nil {
			log.Printf("load recipient %d for %s email failed: %v", n.UserID, n.Type, err)
			continue
		}
		if recipient.Email == "" {
			continue
		}
		subject, body, err := renderMail(n, recipient)
		if err != nil {
			log.Printf("%v", err)
			continue
		}
		if err := s.mailer.Send([]string{recipient.Email}, subject, body); err != nil {
			log.Printf("email notification %d failed: %v", n.ID, err)
		}
	}
}

// notificationFrom starts a notification to recipient sent by actor.
func notificationFrom(actor models.User, recipient uint, t models.NotificationType, relatedID uint) models.Notification {
	n := models.Notification{
		UserID:      recipient,
		SenderImage: actor.Avatar,
		Type:        t,
		RelatedID:   relatedID,
	}
	if actor.ID != 0 {
		id := actor.ID
		n.SenderID = &id
	}
	return n
}

// List returns the user's newest notifications.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var items []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, storeError("list notifications", err)
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, storeError("count notifications", err)
	}
	return count, nil
}

func (s *NotificationService) owned(ctx context.Context, userID, id uint) (models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return n, notFound("notification_not_found", "notification #%d not found", id)
	}
	if err != nil {
		return n, storeError("load notification", err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return storeError("mark notification read", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return storeError("mark notifications read", err)
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&n).Error; err != nil {
		return storeError("delete notification", err)
	}
	return nil
}
