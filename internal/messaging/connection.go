package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"foodflow/internal/config"
	"foodflow/internal/logger"
)

// NotificationsQueue receives every order event for the notifier
const NotificationsQueue = "notifications_queue"

// NotificationsBinding matches every order event routing key
const NotificationsBinding = "order.#"

const connectAttempts = 5

// Connection wraps a RabbitMQ connection and channel with reconnection logic
type Connection struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	logger   *logger.Logger
	url      string
	exchange string
}

// New connects to RabbitMQ and declares the events exchange and queues
func New(cfg *config.Config, log *logger.Logger) (*Connection, error) {
	conn := &Connection{
		logger:   log,
		url:      cfg.RabbitMQURL(),
		exchange: cfg.RabbitMQ.Exchange,
	}

	if err := conn.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}

	log.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host":     cfg.RabbitMQ.Host,
		"exchange": conn.exchange,
	})
	return conn, nil
}

// connect dials with retries; callers hold mu or own the connection exclusively
func (c *Connection) connect() error {
	var err error
	for i := 0; i < connectAttempts; i++ {
		c.conn, err = amqp091.Dial(c.url)
		if err == nil {
			c.channel, err = c.conn.Channel()
			if err == nil {
				if err = c.setupTopology(); err == nil {
					return nil
				}
				c.logger.Error("rabbitmq_setup_failed", "Failed to set up topology", "startup", err, nil)
				c.close()
			} else {
				c.conn.Close()
			}
		}

		if i < connectAttempts-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			c.logger.Error("rabbitmq_connection_failed",
				fmt.Sprintf("Failed to connect to RabbitMQ, retrying in %v", wait),
				"startup", err, nil)
			time.Sleep(wait)
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", connectAttempts, err)
}

// setupTopology declares the events topic exchange and binds the
// notifications queue to every order event.
func (c *Connection) setupTopology() error {
	err := c.channel.ExchangeDeclare(
		c.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", c.exchange, err)
	}

	_, err = c.channel.QueueDeclare(
		NotificationsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		amqp091.Table{
			"x-message-ttl": int32(24 * time.Hour / time.Millisecond),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", NotificationsQueue, err)
	}

	err = c.channel.QueueBind(
		NotificationsQueue,   // queue name
		NotificationsBinding, // routing key
		c.exchange,           // exchange
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue %s with routing key %s: %w", NotificationsQueue, NotificationsBinding, err)
	}

	return nil
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// Exchange returns the name of the events exchange
func (c *Connection) Exchange() string {
	return c.exchange
}

// Close closes the channel and the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *Connection) close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsClosed checks if the connection is closed
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == nil || c.conn.IsClosed()
}

// EnsureOpen reconnects if the connection has dropped
func (c *Connection) EnsureOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}
	c.close()
	return c.connect()
}

// Reconnect drops the current connection and dials again
func (c *Connection) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.close()
	return c.connect()
}
