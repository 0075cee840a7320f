// Package queue wraps the AMQP connection used to consume webhook jobs.
package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const consumerTag = "webhook-dispatcher"

// Consumer owns the broker connection and a single consuming channel. The
// prefetch count bounds unacknowledged messages, which in turn bounds how
// many deliveries the dispatcher holds in flight.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewConsumer dials the broker, declares the durable queue and applies the
// prefetch limit.
func NewConsumer(url, queueName string, prefetch int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queueName, err)
	}

	return &Consumer{conn: conn, channel: ch, queue: queueName}, nil
}

// Deliveries starts consuming with manual acknowledgment. The returned
// channel closes when the consumer is closed.
func (c *Consumer) Deliveries() (<-chan amqp.Delivery, error) {
	deliveries, err := c.channel.Consume(c.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %q: %w", c.queue, err)
	}
	return deliveries, nil
}

// Close cancels the consumer and closes the connection. Messages still
// unacknowledged return to the queue for redelivery.
func (c *Consumer) Close() error {
	_ = c.channel.Cancel(consumerTag, false)
	return c.conn.Close()
}
