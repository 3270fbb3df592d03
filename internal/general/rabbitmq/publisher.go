package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Publish sends payload to the realtime exchange. QoS 0 maps to a transient
// message, anything higher to a persistent one.
func (t *Transport) Publish(topic string, qos byte, payload []byte) error {
	t.mu.RLock()
	ch := t.ch
	conn := t.conn
	t.mu.RUnlock()

	if conn == nil || conn.IsClosed() || ch == nil || ch.IsClosed() {
		return errNotConnected
	}

	mode := amqp.Transient
	if qos > 0 {
		mode = amqp.Persistent
	}

	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(ctx, t.exchange, routingKey(topic), false, false,
		amqp.Publishing{
			DeliveryMode: mode,
			ContentType:  "application/json",
			Body:         payload,
		},
	); err != nil {
		return fmt.Errorf("rabbitmq: publish %q: %w", topic, err)
	}
	return nil
}

// SetPassword stores the new secret for future dials and pushes it into the
// open connection with update-secret, so the session is not re-established.
func (t *Transport) SetPassword(password string) error {
	t.password.Store(password)

	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}
	if err := conn.UpdateSecret(password, "credential refresh"); err != nil {
		return fmt.Errorf("rabbitmq: update secret: %w", err)
	}
	return nil
}
