package services

import (
	"errors"
	"fmt"
	"testing"

	"courtside/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestStoreErrorClassification(t *testing.T) {
	domain := notFound("event_not_found", "event #1 not found")
	assert.Same(t, domain, storeError("op", fmt.Errorf("wrapped: %w", domain)))

	pgDup := storeError("insert", &pgconn.PgError{Code: "23505"})
	assert.Equal(t, KindConflict, KindOf(pgDup))

	sqliteDup := storeError("insert", errors.New("UNIQUE constraint failed: participants.event_id"))
	assert.Equal(t, KindConflict, KindOf(sqliteDup))

	assert.Equal(t, KindConflict, KindOf(storeError("insert", gorm.ErrDuplicatedKey)))

	broken := errors.New("connection reset")
	wrapped := storeError("commit", broken)
	assert.Equal(t, KindStoreFailure, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, broken)

	assert.Equal(t, KindStoreFailure, KindOf(broken))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Nil(t, storeError("noop", nil))
}

func TestWrongHostMessage(t *testing.T) {
	err := wrongHost(5, models.EventHost(12), models.DiscussionHost(7))
	assert.Equal(t, "wrong_entity_type: comment #5 belongs to discussion #7, not event #12", err.Error())
	assert.Equal(t, models.DiscussionHost(7), *err.Host)
}
