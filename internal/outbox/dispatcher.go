package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhive/backend/internal/metrics"
	"userhive/backend/internal/models"
)

// Publisher is the outbound side of the messaging client.
type Publisher interface {
	Send(ctx context.Context, channel string, payload []byte) ([]byte, error)
	Emit(ctx context.Context, channel string, payload []byte) error
}

// Dispatcher polls unpublished events in id order and delivers them through
// the messaging client. A delivery failure stops the current pass so events
// on the broker stay in commit order; the next tick retries.
type Dispatcher struct {
	db        *gorm.DB
	publisher Publisher
	interval  time.Duration
	batch     int
	log       *zap.Logger
}

// NewDispatcher constructor
func NewDispatcher(db *gorm.DB, publisher Publisher, interval time.Duration, batch int, log *zap.Logger) *Dispatcher {
	if batch < 1 {
		batch = 64
	}
	return &Dispatcher{db: db, publisher: publisher, interval: interval, batch: batch, log: log}
}

// Run drains the outbox on an interval until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Drain(ctx); err != nil {
				d.log.Warn("outbox drain stopped", zap.Error(err))
			}
		}
	}
}

// Drain publishes one batch of pending events.
func (d *Dispatcher) Drain(ctx context.Context) error {
	var events []models.OutboxEvent
	err := d.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id ASC").
		Limit(d.batch).
		Find(&events).Error
	if err != nil {
		return err
	}

	for i := range events {
		if err := d.publish(ctx, &events[i]); err != nil {
			metrics.OutboxEvents.WithLabelValues(events[i].Channel, "failure").Inc()
			if uerr := d.db.Model(&events[i]).Update("attempts", gorm.Expr("attempts + 1")).Error; uerr != nil {
				d.log.Warn("attempt count update failed", zap.Uint("event", events[i].ID), zap.Error(uerr))
			}
			return err
		}
		metrics.OutboxEvents.WithLabelValues(events[i].Channel, "success").Inc()
		now := time.Now()
		if err := d.db.Model(&events[i]).Update("published_at", now).Error; err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, event *models.OutboxEvent) error {
	payload := []byte(event.Payload)
	if event.Kind == models.OutboxSend {
		_, err := d.publisher.Send(ctx, event.Channel, payload)
		return err
	}
	return d.publisher.Emit(ctx, event.Channel, payload)
}
