package services

import (
	"errors"
	"log"
	"time"

	"courtside/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ParticipationLedger owns the confirmed/waiting rows of each event and the
// event's denormalized current_players. Every method expects to run inside a
// transaction; callers own commit and rollback.
type ParticipationLedger struct {
	now func() time.Time
}

func NewParticipationLedger() *ParticipationLedger {
	return &ParticipationLedger{now: time.Now}
}

type JoinResult struct {
	Event       models.Event
	Participant models.Participant
}

type LeaveResult struct {
	Event    models.Event
	Left     models.Participant
	Promoted *models.Participant // nil unless a waiting participant took the freed seat
}

// lockEvent reads the event row FOR UPDATE so membership changes on the same
// event are serialized.
func lockEvent(tx *gorm.DB, eventID uint) (models.Event, error) {
	var event models.Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", eventID).Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return event, notFound("event_not_found", "event #%d not found", eventID)
	}
	if err != nil {
		return event, storeError("load event", err)
	}
	return event, nil
}

func (l *ParticipationLedger) ConfirmedCount(tx *gorm.DB, eventID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Participant{}).
		Where("event_id = ? AND status = ?", eventID, models.StatusConfirmed).
		Count(&count).Error
	if err != nil {
		return 0, storeError("count confirmed participants", err)
	}
	return count, nil
}

func (l *ParticipationLedger) find(tx *gorm.DB, eventID, userID uint) (*models.Participant, error) {
	var p models.Participant
	err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("load participant", err)
	}
	return &p, nil
}

// syncPlayers stores the confirmed count on the locked event row when it
// differs from what the row holds, and mirrors it on event.
func syncPlayers(tx *gorm.DB, event *models.Event, confirmed int64) error {
	if int64(event.CurrentPlayers) == confirmed {
		return nil
	}
	if err := tx.Model(&models.Event{}).Where("id = ?", event.ID).
		UpdateColumn("current_players", confirmed).Error; err != nil {
		return storeError("update current_players", err)
	}
	event.CurrentPlayers = int(confirmed)
	return nil
}

// Join seats the user if there is room, otherwise puts them on the waiting list.
func (l *ParticipationLedger) Join(tx *gorm.DB, eventID, userID uint) (JoinResult, error) {
	event, err := lockEvent(tx, eventID)
	if err != nil {
		return JoinResult{}, err
	}

	existing, err := l.find(tx, eventID, userID)
	if err != nil {
		return JoinResult{}, err
	}
	if existing != nil {
		return JoinResult{}, conflict("already_joined", "user #%d has already joined event #%d (%s)", userID, eventID, existing.Status)
	}

	confirmed, err := l.ConfirmedCount(tx, eventID)
	if err != nil {
		return JoinResult{}, err
	}

	p := models.Participant{
		EventID:  eventID,
		UserID:   userID,
		Status:   models.StatusWaiting,
		JoinedAt: l.now(),
	}
	if int64(event.CurrentPlayers) != confirmed {
		log.Printf("join: event %d current_players drifted (%d stored, %d confirmed)", eventID, event.CurrentPlayers, confirmed)
	}
	if confirmed < int64(event.MaxPlayers) {
		p.Status = models.StatusConfirmed
		confirmed++
	}
	if err := tx.Create(&p).Error; err != nil {
		return JoinResult{}, storeError("insert participant", err)
	}
	if err := syncPlayers(tx, &event, confirmed); err != nil {
		return JoinResult{}, err
	}
	return JoinResult{Event: event, Participant: p}, nil
}

// Leave removes the user's row. Freeing a confirmed seat promotes the
// earliest waiting participant.
func (l *ParticipationLedger) Leave(tx *gorm.DB, eventID, userID uint) (LeaveResult, error) {
	event, err := lockEvent(tx, eventID)
	if err != nil {
		return LeaveResult{}, err
	}

	p, err := l.find(tx, eventID, userID)
	if err != nil {
		return LeaveResult{}, err
	}
	if p == nil {
		return LeaveResult{}, conflict("not_participating", "user #%d is not participating in event #%d", userID, eventID)
	}

	if err := tx.Delete(&models.Participant{}, p.ID).Error; err != nil {
		return LeaveResult{}, storeError("delete participant", err)
	}
	res := LeaveResult{Left: *p}

	if p.Status == models.StatusConfirmed {
		promoted, err := l.promoteNext(tx, eventID)
		if err != nil {
			return LeaveResult{}, err
		}
		res.Promoted = promoted
	}

	confirmed, err := l.ConfirmedCount(tx, eventID)
	if err != nil {
		return LeaveResult{}, err
	}
	if err := syncPlayers(tx, &event, confirmed); err != nil {
		return LeaveResult{}, err
	}
	res.Event = event
	return res, nil
}

// promoteNext confirms the earliest waiting participant, if any.
func (l *ParticipationLedger) promoteNext(tx *gorm.DB, eventID uint) (*models.Participant, error) {
	var next models.Participant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ? AND status = ?", eventID, models.StatusWaiting).
		Order("joined_at ASC, id ASC").
		Take(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("load waiting participant", err)
	}

	if err := tx.Model(&models.Participant{}).Where("id = ?", next.ID).
		Update("status", models.StatusConfirmed).Error; err != nil {
		return nil, storeError("promote participant", err)
	}
	next.Status = models.StatusConfirmed
	return &next, nil
}

// Reconcile overwrites current_players with the confirmed count from the
// ledger and returns the corrected value.
func (l *ParticipationLedger) Reconcile(tx *gorm.DB, eventID uint) (int, error) {
	var event models.Event
	err := tx.Select("id", "current_players").Where("id = ?", eventID).Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, notFound("event_not_found", "event #%d not found", eventID)
	}
	if err != nil {
		return 0, storeError("load event", err)
	}

	confirmed, err := l.ConfirmedCount(tx, eventID)
	if err != nil {
		return 0, err
	}
	if int64(event.CurrentPlayers) == confirmed {
		return event.CurrentPlayers, nil
	}

	log.Printf("reconcile: event %d current_players drifted (%d stored, %d confirmed)", eventID, event.CurrentPlayers, confirmed)
	if err := tx.Model(&models.Event{}).Where("id = ?", eventID).
		UpdateColumn("current_players", confirmed).Error; err != nil {
		return 0, storeError("reconcile current_players", err)
	}
	return int(confirmed), nil
}

// ReconcileEvents corrects current_players on a batch of already loaded
// events with one grouped count, updating only rows that drifted.
func (l *ParticipationLedger) ReconcileEvents(tx *gorm.DB, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]uint, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	var rows []struct {
		EventID uint
		Total   int64
	}
	err := tx.Model(&models.Participant{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ? AND status = ?", ids, models.StatusConfirmed).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return storeError("count confirmed participants", err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.EventID] = r.Total
	}

	// Drifted rows are locked and recounted before they are written.
	for i := range events {
		e := &events[i]
		if int64(e.CurrentPlayers) == counts[e.ID] {
			continue
		}
		locked, err := lockEvent(tx, e.ID)
		if IsKind(err, KindNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		confirmed, err := l.ConfirmedCount(tx, e.ID)
		if err != nil {
			return err
		}
		if int64(locked.CurrentPlayers) != confirmed {
			log.Printf("reconcile: event %d current_players drifted (%d stored, %d confirmed)", e.ID, locked.CurrentPlayers, confirmed)
		}
		if err := syncPlayers(tx, &locked, confirmed); err != nil {
			return err
		}
		e.CurrentPlayers = locked.CurrentPlayers
	}
	return nil
}

// List returns confirmed participants first, then the waiting list, each in
// join order.
func (l *ParticipationLedger) List(tx *gorm.DB, eventID uint) ([]models.Participant, error) {
	var participants []models.Participant
	err := tx.Preload("User").
		Where("event_id = ?", eventID).
		Order("CASE WHEN status = '" + string(models.StatusConfirmed) + "' THEN 0 ELSE 1 END, joined_at ASC, id ASC").
		Find(&participants).Error
	if err != nil {
		return nil, storeError("list participants", err)
	}
	return participants, nil
}

// RemoveAll deletes every participant row of the event.
func (l *ParticipationLedger) RemoveAll(tx *gorm.DB, eventID uint) error {
	if err := tx.Where("event_id = ?", eventID).Delete(&models.Participant{}).Error; err != nil {
		return storeError("delete participants", err)
	}
	return nil
}
