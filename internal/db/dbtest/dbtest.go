// Package dbtest gives tests a migrated, throwaway sqlite database.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"courtside/internal/db"
	"courtside/internal/models"

	"gorm.io/gorm"
)

var seq atomic.Int64

func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	conn, err := db.Open("sqlite", dsn, "silent")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// User inserts a user with a predictable name and returns it.
func User(t testing.TB, conn *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.test", Password: "x", Avatar: "🏀"}
	if err := conn.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}
