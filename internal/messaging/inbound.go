package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"userhive/backend/internal/apperr"
)

// UpdateHandler processes one inbound update payload. The handler must call
// ack after the work completes, success or failure; ack is idempotent, and
// the consumer calls it once more after the handler returns so a handler that
// failed before acking never causes a redelivery loop.
type UpdateHandler func(ctx context.Context, payload []byte, ack func() error) error

// ReplyHandler serves one request-reply lookup. The returned bytes are sent
// back as the reply, which doubles as the acknowledgment.
type ReplyHandler func(ctx context.Context, payload []byte) ([]byte, error)

// ConsumeUpdates binds the durable consumer for the update subject and
// processes messages until the context is cancelled.
func (c *Client) ConsumeUpdates(ctx context.Context, handler UpdateHandler) (jetstream.ConsumeContext, error) {
	if _, err := c.js.Stream(ctx, UpdateStreamName); err != nil {
		_, err = c.js.CreateStream(ctx, jetstream.StreamConfig{
			Name:      UpdateStreamName,
			Subjects:  []string{SubjectUpdateUser},
			Retention: jetstream.WorkQueuePolicy,
			Storage:   jetstream.FileStorage,
			MaxAge:    7 * 24 * time.Hour,
		})
		if err != nil {
			return nil, apperr.Wrap(apperr.Downstream, "Could not reach the message broker.", err)
		}
	}

	consumer, err := c.js.CreateOrUpdateConsumer(ctx, UpdateStreamName, jetstream.ConsumerConfig{
		Durable:       UpdateConsumerName,
		FilterSubject: SubjectUpdateUser,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Downstream, "Could not reach the message broker.", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var once sync.Once
		ack := func() error {
			var err error
			once.Do(func() { err = msg.Ack() })
			return err
		}
		if err := handler(ctx, msg.Data(), ack); err != nil {
			c.log.Error("inbound update failed", zap.Error(err))
		}
		if err := ack(); err != nil {
			c.log.Error("inbound ack failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Downstream, "Could not reach the message broker.", err)
	}
	return cc, nil
}

// Reply subscribes a request-reply handler on a subject. Handler failures are
// answered with an empty reply so the requester is never left waiting.
func (c *Client) Reply(subject string, handler ReplyHandler) (*nats.Subscription, error) {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		data, err := handler(context.Background(), msg.Data)
		if err != nil {
			c.log.Warn("lookup failed", zap.String("subject", subject), zap.Error(err))
			data = []byte("{}")
		}
		if err := msg.Respond(data); err != nil {
			c.log.Error("reply failed", zap.String("subject", subject), zap.Error(err))
		}
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Downstream, "Could not reach the message broker.", err)
	}
	return sub, nil
}
