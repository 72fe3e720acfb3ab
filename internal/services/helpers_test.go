package services

import (
	"sync"
	"testing"
	"time"

	"courtside/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recordingNotifier) Notify(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) ofType(t models.NotificationType) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.sent {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// stepClock returns strictly increasing times one second apart.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func createEvent(t *testing.T, conn *gorm.DB, creator models.User, capacity int) models.Event {
	t.Helper()
	e := models.Event{
		CreatorID:  creator.ID,
		Title:      "Sunday Hoops",
		Sport:      "basketball",
		StartsAt:   time.Now().Add(48 * time.Hour),
		MaxPlayers: capacity,
	}
	require.NoError(t, conn.Create(&e).Error)
	return e
}

func createDiscussion(t *testing.T, conn *gorm.DB, creator models.User) models.Discussion {
	t.Helper()
	d := models.Discussion{CreatorID: creator.ID, Title: "Best pickup courts downtown?", Category: "general"}
	require.NoError(t, conn.Create(&d).Error)
	return d
}

func countRows(t *testing.T, conn *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func reloadEvent(t *testing.T, conn *gorm.DB, id uint) models.Event {
	t.Helper()
	var e models.Event
	require.NoError(t, conn.First(&e, id).Error)
	return e
}
