package rabbitmq

import (
	"fmt"
	"strings"

	"ride-hail-realtime/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = contracts.ExchangeRealtimeTopic

// queueName is the exclusive per-client queue.
func queueName(clientID string) string {
	return contracts.QueueClientPrefix + clientID
}

// routingKey maps an MQTT style topic ("rider-1/ack") onto an AMQP topic
// routing key ("rider-1.ack"), the same translation the RabbitMQ MQTT
// plugin applies.
func routingKey(topic string) string {
	return strings.ReplaceAll(strings.TrimSpace(topic), "/", ".")
}

// topicOf reverses routingKey for inbound deliveries.
func topicOf(key string) string {
	return strings.ReplaceAll(key, ".", "/")
}

func declareTopology(ch *amqp.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	// exclusive + auto-delete: the queue lives as long as this session, which
	// matches a clean MQTT session
	if _, err := ch.QueueDeclare(queue, false, true, true, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return nil
}

func bindTopic(ch *amqp.Channel, exchange, queue, topic string) error {
	if err := ch.QueueBind(queue, routingKey(topic), exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s (%s): %w", queue, exchange, topic, err)
	}
	return nil
}
