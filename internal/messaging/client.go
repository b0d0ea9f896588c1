// Package messaging wraps the NATS connection used to reach the ledger and
// notification services, plus the JetStream consumer for inbound updates.
package messaging

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"userhive/backend/internal/apperr"
)

// Client wraps the NATS connection and JetStream context.
type Client struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	timeout time.Duration
	log     *zap.Logger
}

// Connect establishes a connection to the NATS server.
func Connect(url string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("userhive-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Downstream, "Could not reach the message broker.", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, apperr.Wrap(apperr.Downstream, "Could not reach the message broker.", err)
	}

	return &Client{conn: nc, js: js, timeout: timeout, log: log}, nil
}

// Send publishes a request on a channel and waits for the remote
// acknowledgment.
func (c *Client) Send(ctx context.Context, channel string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, channel, payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.Downstream, "Could not deliver the message.", err)
	}
	return msg.Data, nil
}

// Emit publishes fire-and-forget on a channel.
func (c *Client) Emit(_ context.Context, channel string, payload []byte) error {
	if err := c.conn.Publish(channel, payload); err != nil {
		return apperr.Wrap(apperr.Downstream, "Could not deliver the message.", err)
	}
	return nil
}

// Close drains in-flight messages and closes the connection.
func (c *Client) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}
