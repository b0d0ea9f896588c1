package models

import "time"

// OutboxKind selects how the dispatcher delivers an event.
type OutboxKind string

const (
	// OutboxSend is request-response delivery; the dispatcher waits for the
	// remote acknowledgment.
	OutboxSend OutboxKind = "send"
	// OutboxEmit is fire-and-forget delivery.
	OutboxEmit OutboxKind = "emit"
)

// OutboxEvent is one pending outbound message, written in the same database
// transaction as the mutation it announces. A separate dispatcher drains
// unpublished rows in id order, so remote systems only ever hear about
// committed changes.
type OutboxEvent struct {
	ID          uint       `gorm:"primaryKey"`
	Channel     string     `gorm:"type:varchar(64);not null"`
	Kind        OutboxKind `gorm:"type:varchar(8);not null"`
	Payload     string     `gorm:"type:jsonb;not null"`
	Attempts    int        `gorm:"not null;default:0"`
	PublishedAt *time.Time `gorm:"index"`
	CreatedAt   time.Time
}
