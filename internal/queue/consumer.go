package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/model"
)

// Sink stores audit records. Storing the same event id twice must be a
// no-op, since RabbitMQ may redeliver.
type Sink interface {
	Insert(ctx context.Context, ev model.AuditEvent) error
}

// errPoison marks a message that can never be processed.
var errPoison = errors.New("poison message")

// Consumer moves lifecycle events from RabbitMQ into a Sink.
type Consumer struct {
	URL   string
	Queue string
	Sink  Sink
	Log   *zap.Logger
	// Observe, when set, is told the result of every message.
	Observe func(result string)
}

// Run connects, declares the durable queue and consumes until ctx is
// cancelled, reconnecting with backoff when the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("audit consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("audit consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.Log.Info("audit consumer: consuming", zap.String("queue", c.Queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	err := c.handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
		c.observe("stored")
	case errors.Is(err, errPoison):
		c.Log.Error("audit consumer: dropping message", zap.String("message_id", d.MessageId), zap.Error(err))
		_ = d.Nack(false, false) // never requeue what cannot be parsed
		c.observe("dropped")
	default:
		c.Log.Warn("audit consumer: store failed; requeueing", zap.String("message_id", d.MessageId), zap.Error(err))
		_ = d.Nack(false, true)
		c.observe("requeued")
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev LifecycleEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", errPoison, err)
	}
	if err := ev.validate(); err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	return c.Sink.Insert(ctx, ev.Record())
}

func (c *Consumer) observe(result string) {
	if c.Observe != nil {
		c.Observe(result)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
