// Package service holds collaborators that sit beside the repositories,
// such as the lifecycle event publisher.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/queue"
)

// Publisher sends lifecycle events to a durable RabbitMQ queue. Each
// publish dials its own connection; mutations are infrequent and this keeps
// no broker state in the API process. Errors are logged and returned so
// callers can ignore them without interrupting the request.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger
}

// NewPublisher returns a publisher for queueName on the broker at url.
func NewPublisher(url, queueName string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, queue: queueName, log: log}
}

// Publish sends ev as a persistent JSON message whose message id is the
// event id.
func (p *Publisher) Publish(ctx context.Context, ev queue.LifecycleEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// idempotent; durable so events survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Entity + "." + ev.Action,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("event_id", ev.ID), zap.Error(err))
		return err
	}
	return nil
}
