// Package events publishes order lifecycle events to an AMQP broker for
// downstream consumers (fulfillment, analytics). Publication is always
// best-effort; a nil *Publisher is a valid no-op.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	applog "artventure/internal/log"
)

const orderQueue = "order_events"

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Connect dials the broker and declares the durable order-events queue.
// An empty URL yields a nil publisher, which every method tolerates.
func Connect(url string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", orderQueue, err)
	}
	return &Publisher{conn: conn, channel: ch}, nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Publish sends an event; failures are logged and swallowed so order
// flows never depend on the broker being up.
func (p *Publisher) Publish(eventType string, payload map[string]any) {
	if p == nil {
		return
	}
	payload["event"] = eventType
	body, err := json.Marshal(payload)
	if err != nil {
		applog.Warn("events.marshal.fail", err, map[string]any{"event": eventType})
		return
	}
	err = p.channel.Publish("", orderQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		applog.Warn("events.publish.fail", err, map[string]any{"event": eventType})
	}
}
