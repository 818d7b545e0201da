package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher publishes events to a RabbitMQ topic exchange. The event type
// is used as the routing key and the stream name travels in the headers.
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string
	appID    string
	logger   *zap.Logger
}

func NewAMQPPublisher(url, exchange, appID string, logger *zap.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, exchange: exchange, appID: appID, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	key, msg, err := p.publishing(stream, newEvent(eventType, data))
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	p.logger.Debug("event published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", key),
		zap.String("message_id", msg.MessageId),
	)
	return nil
}

// publishing returns the routing key and message for event. Consumers bind
// per event type (transaction.created, transaction.#); the stream name is
// carried in the "stream" header.
func (p *AMQPPublisher) publishing(stream string, event Event) (string, amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return "", amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return event.Type, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         event.Type,
		Timestamp:    event.Timestamp,
		AppId:        p.appID,
		Headers:      amqp.Table{"stream": stream},
		Body:         body,
	}, nil
}

func (p *AMQPPublisher) Shutdown(context.Context) error {
	return p.conn.Close()
}
