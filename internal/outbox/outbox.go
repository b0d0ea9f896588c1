// Package outbox implements the transactional outbox: commands stage events
// in the same database transaction as their mutation, and a dispatcher drains
// committed rows to the message broker. Delivery is at-least-once; consumers
// tolerate duplicates.
package outbox

import (
	"encoding/json"

	"gorm.io/gorm"

	"userhive/backend/internal/models"
)

// Store stages events through a transactional handle.
type Store struct{}

// NewStore constructor
func NewStore() *Store {
	return &Store{}
}

// Stage appends one pending event using the caller's transaction. If the
// transaction rolls back, the event row rolls back with it.
func (s *Store) Stage(tx *gorm.DB, channel string, kind models.OutboxKind, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return tx.Create(&models.OutboxEvent{
		Channel: channel,
		Kind:    kind,
		Payload: string(body),
	}).Error
}
