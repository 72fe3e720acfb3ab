package services

import (
	"context"
	"testing"

	"courtside/internal/db/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	conn := dbtest.New(t)
	s := NewAuthService(conn)
	ctx := context.Background()

	u, err := s.Register(ctx, "Jordan@Example.com", "", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "jordan", u.Username)
	assert.Equal(t, "jordan@example.com", u.Email)
	assert.NotEqual(t, "s3cret!", u.Password)
	assert.NotEmpty(t, u.Avatar)

	_, err = s.Register(ctx, "jordan@example.com", "other", "another1")
	assert.True(t, IsKind(err, KindConflict))

	got, err := s.Login(ctx, "JORDAN@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Login(ctx, "jordan@example.com", "wrong")
	assert.True(t, IsKind(err, KindUnauthorized))
	_, err = s.Login(ctx, "nobody@example.com", "s3cret!")
	assert.True(t, IsKind(err, KindUnauthorized))

	_, err = s.Get(ctx, u.ID+10)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestRegisterValidation(t *testing.T) {
	s := NewAuthService(dbtest.New(t))
	ctx := context.Background()

	_, err := s.Register(ctx, "not-an-email", "x", "longenough")
	assert.True(t, IsKind(err, KindInvalidArgument))

	_, err = s.Register(ctx, "a@example.com", "x", "short")
	assert.True(t, IsKind(err, KindInvalidArgument))
}
