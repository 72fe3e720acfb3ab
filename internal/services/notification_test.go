package services

import (
	"context"
	"encoding/json"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"courtside/internal/config"
	"courtside/internal/db/dbtest"
	"courtside/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationServicePersistsOnClose(t *testing.T) {
	conn := dbtest.New(t)
	owner := dbtest.User(t, conn, "owner")
	actor := dbtest.User(t, conn, "actor")

	s := NewNotificationService(conn, 10)
	s.Notify(notificationFrom(actor, owner.ID, models.NotificationTypeEventJoin, 1))
	s.Notify(notificationFrom(actor, actor.ID, models.NotificationTypeEventJoin, 1)) // to self, skipped
	s.Close()

	items, err := s.List(context.Background(), owner.ID, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.NotificationTypeEventJoin, items[0].Type)
	assert.Equal(t, "🏀", items[0].SenderImage)
	assert.Equal(t, int64(0), countRows(t, conn, &models.Notification{}, "user_id = ?", actor.ID))

	// Closed services drop instead of blocking.
	s.Notify(notificationFrom(actor, owner.ID, models.NotificationTypeEventLeave, 1))
	assert.Equal(t, int64(1), countRows(t, conn, &models.Notification{}, "user_id = ?", owner.ID))
}

func TestNotificationQueueFullDrops(t *testing.T) {
	// No worker is running, so nothing drains the queue.
	s := &NotificationService{queue: make(chan models.Notification, 2)}
	for i := 0; i < 5; i++ {
		s.Notify(models.Notification{UserID: 1, Type: models.NotificationTypeEventJoin})
	}
	assert.Len(t, s.queue, 2)

	s.Notify(models.Notification{Type: models.NotificationTypeEventJoin})
	assert.Len(t, s.queue, 2)
}

func TestNotificationReadAndDelete(t *testing.T) {
	conn := dbtest.New(t)
	owner := dbtest.User(t, conn, "owner")
	other := dbtest.User(t, conn, "other")
	ctx := context.Background()

	s := NewNotificationService(conn, 10)
	defer s.Close()
	rows := []models.Notification{
		{UserID: owner.ID, Type: models.NotificationTypeEventJoin, Text: "a"},
		{UserID: owner.ID, Type: models.NotificationTypeEventLeave, Text: "b"},
	}
	require.NoError(t, conn.Create(&rows).Error)

	unread, err := s.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	assert.True(t, IsKind(s.MarkRead(ctx, other.ID, rows[0].ID), KindNotFound))
	require.NoError(t, s.MarkRead(ctx, owner.ID, rows[0].ID))
	unread, _ = s.UnreadCount(ctx, owner.ID)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, s.MarkAllRead(ctx, owner.ID))
	unread, _ = s.UnreadCount(ctx, owner.ID)
	assert.Equal(t, int64(0), unread)

	require.NoError(t, s.Delete(ctx, owner.ID, rows[1].ID))
	items, err := s.List(ctx, owner.ID, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRedisPublisherFansOut(t *testing.T) {
	mr := miniredis.RunT(t)
	pub, err := NewRedisPublisher("redis://" + mr.Addr())
	require.NoError(t, err)
	defer pub.Close()

	ctx := context.Background()
	sub := pub.Subscribe(ctx, 7)
	defer sub.Close()
	_, err = sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	conn := dbtest.New(t)
	s := NewNotificationService(conn, 10, WithPublisher(pub))
	s.Notify(models.Notification{UserID: 7, Type: models.NotificationTypeWaitlistPromoted, Text: "you're in", RelatedID: 3})
	s.Close()

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "notifications:7", msg.Channel)
		var got models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, models.NotificationTypeWaitlistPromoted, got.Type)
		assert.Equal(t, uint(3), got.RelatedID)
		assert.NotZero(t, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestNewRedisPublisherBadURL(t *testing.T) {
	_, err := NewRedisPublisher("not a url")
	assert.Error(t, err)
}

type sentMail struct {
	addr string
	to   []string
	msg  string
}

func TestPromotionIsEmailed(t *testing.T) {
	conn := dbtest.New(t)
	u := dbtest.User(t, conn, "waiting")

	var (
		mu   sync.Mutex
		sent []sentMail
	)
	mailer := NewMailService(config.SMTPConfig{Host: "smtp.test", Port: "587", Username: "u", Password: "p", From: "games@courtside.test"})
	mailer.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, sentMail{addr: addr, to: to, msg: string(msg)})
		return nil
	}

	s := NewNotificationService(conn, 10, WithMailer(mailer))
	s.Notify(models.Notification{UserID: u.ID, Type: models.NotificationTypeWaitlistPromoted, Text: "Sunday Hoops"})
	s.Notify(models.Notification{UserID: u.ID, Type: models.NotificationTypeEventJoin, Text: "not emailed"})
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	assert.Equal(t, "smtp.test:587", sent[0].addr)
	assert.Equal(t, []string{u.Email}, sent[0].to)
	assert.True(t, strings.Contains(sent[0].msg, "Sunday Hoops"))
	assert.Contains(t, sent[0].msg, "Subject: You're off the waiting list")
}

func TestDisabledMailServiceSendsNothing(t *testing.T) {
	m := NewMailService(config.SMTPConfig{})
	called := false
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	require.NoError(t, m.Send([]string{"a@example.test"}, "s", "b"))
	assert.False(t, called)
}
