package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"examtutor/internal/news"
)

type DigestPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewDigestPublisher(conn *amqp.Connection, queueName string) *DigestPublisher {
	return &DigestPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *DigestPublisher) Publish(ctx context.Context, job news.DigestJob) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal digest job failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish digest job failed: %w", err)
	}
	return nil
}
