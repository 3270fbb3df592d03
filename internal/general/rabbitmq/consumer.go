package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// consume forwards deliveries until the channel closes. A delivery is acked
// once handed to OnMessage; ordering and redelivery dedupe are the
// receiver's concern.
func (t *Transport) consume(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		if t.cb.OnMessage != nil {
			t.cb.OnMessage(topicOf(d.RoutingKey), d.Body)
		}
		if err := d.Ack(false); err != nil {
			t.reportError(fmt.Errorf("rabbitmq: ack delivery: %w", err))
		}
	}
}

// Subscribe records topic and binds it now when a channel is open.
// Bindings are re-created on every reconnect.
func (t *Transport) Subscribe(topic string, qos byte) error {
	if t.isClosed() {
		return ErrClosed
	}

	t.mu.Lock()
	t.subs[topic] = qos
	ch := t.ch
	t.mu.Unlock()

	if ch == nil || ch.IsClosed() {
		return nil
	}
	return bindTopic(ch, t.exchange, queueName(t.opts.ClientID), topic)
}
