package contracts

import "strings"

// Quality-of-service levels used on the wire.
const (
	QoSAtMostOnce  byte = 0
	QoSAtLeastOnce byte = 1
)

// AMQP topology used when the broker is RabbitMQ instead of an MQTT broker.
const (
	ExchangeRealtimeTopic = "ride_realtime"
	QueueClientPrefix     = "client."
)

const ackTopicSuffix = "/ack"

// InboundTopic is the per-identity topic carrying ride, chat and location events.
func InboundTopic(identity string) string {
	return strings.TrimSpace(identity)
}

// AckTopic is the per-identity topic receiving acknowledgements.
func AckTopic(identity string) string {
	return strings.TrimSpace(identity) + ackTopicSuffix
}
