package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"foodflow/internal/logger"
	"foodflow/internal/models"
)

const publishTimeout = 10 * time.Second

// Publisher publishes order events to the events exchange
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderEvent publishes the event using its type as the routing key.
// Urgent orders are published with a higher priority.
func (p *Publisher) PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	if err := p.conn.EnsureOpen(); err != nil {
		return fmt.Errorf("failed to reconnect: %w", err)
	}

	publishing, err := newPublishing(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	exchange := p.conn.Exchange()
	err = p.conn.Channel().PublishWithContext(
		ctx,
		exchange,   // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, exchange, err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		"", map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  event.Type,
			"order_id":     event.OrderID,
			"message_size": len(publishing.Body),
		})
	return nil
}

// newPublishing encodes an event as a persistent JSON message
func newPublishing(event *models.OrderEvent) (amqp091.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    event.Timestamp,
		Type:         event.Type,
	}
	if event.Urgent {
		publishing.Priority = 5
	}
	return publishing, nil
}

// Close closes the underlying connection
func (p *Publisher) Close() error {
	return p.conn.Close()
}
