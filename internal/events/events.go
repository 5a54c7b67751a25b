// Package events publishes ad tracking events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Event types
const (
	TypeView  = "view"
	TypeClick = "click"
)

// AdEvent is one counted view or click.
type AdEvent struct {
	Type       string    `json:"type"`
	AdID       string    `json:"ad_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends tracking events.
type Publisher interface {
	Publish(ctx context.Context, event AdEvent) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, AdEvent) error { return nil }
func (Nop) Close() error                           { return nil }

// channel is the part of *amqp.Channel the producer uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Producer publishes events as JSON to a durable queue.
type Producer struct {
	queue string
	conn  *amqp.Connection

	mu sync.Mutex
	ch channel
}

// New creates a producer for the given queue over an open connection.
func New(queue string, conn *amqp.Connection) *Producer {
	return &Producer{queue: queue, conn: conn}
}

// Dial connects to the broker and declares the queue.
func Dial(url, queue string) (*Producer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	p := New(queue, conn)
	if err := p.Connect(); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// Connect opens a channel and declares the queue.
func (p *Producer) Connect() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	return p.attach(ch)
}

func (p *Producer) attach(ch channel) error {
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare queue %s: %w", p.queue, err)
	}
	p.mu.Lock()
	p.ch = ch
	p.mu.Unlock()
	return nil
}

// Publish implements Publisher.
func (p *Producer) Publish(ctx context.Context, event AdEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return fmt.Errorf("producer is not connected")
	}
	err = p.ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Producer) Close() error {
	p.mu.Lock()
	ch := p.ch
	p.ch = nil
	p.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
