package store

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/wpmcp/tokenbroker/models"
)

// AuthEventStore records the local authorization audit trail in SQLite.
type AuthEventStore struct {
	DB *gorm.DB
}

// OpenAuthEventStore opens the events database at path. The schema is managed
// by the migrate package; this only opens the connection.
func OpenAuthEventStore(path string) (*AuthEventStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &AuthEventStore{DB: db}, nil
}

// NewAuthEventStore wraps an existing gorm handle.
func NewAuthEventStore(db *gorm.DB) *AuthEventStore {
	return &AuthEventStore{DB: db}
}

// Record appends one event. Callers must not put token values in any field.
func (s *AuthEventStore) Record(ctx context.Context, event models.AuthEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return s.DB.WithContext(ctx).Create(&event).Error
}

// ListRecent returns up to limit events, newest first.
func (s *AuthEventStore) ListRecent(ctx context.Context, limit int) ([]models.AuthEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []models.AuthEvent
	err := s.DB.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
