package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared   string
	declareErr error
	published  []amqp.Publishing
	keys       []string
	closed     bool
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	c.declared = name
	return amqp.Queue{Name: name}, c.declareErr
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestProducer(t *testing.T) {
	t.Run("publishes JSON to the queue", func(t *testing.T) {
		ch := &fakeChannel{}
		p := New("biscuits.ad_events", nil)
		require.NoError(t, p.attach(ch))
		require.Equal(t, "biscuits.ad_events", ch.declared)

		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, p.Publish(context.Background(), AdEvent{Type: TypeClick, AdID: "ad-1", OccurredAt: at}))

		require.Len(t, ch.published, 1)
		require.Equal(t, []string{"biscuits.ad_events"}, ch.keys)
		msg := ch.published[0]
		require.Equal(t, "application/json", msg.ContentType)
		require.Equal(t, amqp.Persistent, msg.DeliveryMode)
		require.Equal(t, TypeClick, msg.Type)

		var got AdEvent
		require.NoError(t, json.Unmarshal(msg.Body, &got))
		require.Equal(t, "ad-1", got.AdID)
		require.True(t, at.Equal(got.OccurredAt))

		require.NoError(t, p.Close())
		require.True(t, ch.closed)
	})

	t.Run("queue declaration failure", func(t *testing.T) {
		ch := &fakeChannel{declareErr: errors.New("access refused")}
		p := New("q", nil)
		require.ErrorContains(t, p.attach(ch), "failed to declare queue q")
		require.True(t, ch.closed)
		require.Error(t, p.Publish(context.Background(), AdEvent{Type: TypeView, AdID: "x"}))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ch := &fakeChannel{}
		p := New("q", nil)
		require.NoError(t, p.attach(ch))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, p.Publish(ctx, AdEvent{Type: TypeView, AdID: "x"}), context.Canceled)
		require.Empty(t, ch.published)
	})
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	require.NoError(t, p.Publish(context.Background(), AdEvent{Type: TypeView}))
	require.NoError(t, p.Close())
}
