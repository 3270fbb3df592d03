package dispatch

import (
	"context"

	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/general/metrics"
)

// Publisher is the slice of the connection manager the emitter needs.
type Publisher interface {
	IsConnected() bool
	Identity() string
	Publish(topic string, qos byte, payload []byte) error
}

// Emitter publishes acknowledgements to {identity}/ack at QoS 0. ACKs are
// only sent while connected; otherwise they are dropped, never queued.
type Emitter struct {
	pub Publisher
	log *logger.Logger
}

var _ Acker = (*Emitter)(nil)

func NewEmitter(pub Publisher, log *logger.Logger) *Emitter {
	return &Emitter{pub: pub, log: log}
}

func (e *Emitter) Ack(ctx context.Context, env *contracts.Envelope) {
	identity := e.pub.Identity()
	if identity == "" || !e.pub.IsConnected() {
		metrics.AcksSent.WithLabelValues("dropped").Inc()
		e.log.Debug(ctx, "ack_dropped", "not connected, acknowledgement dropped", map[string]any{"type": env.Type})
		return
	}

	body, err := contracts.NewAck(env.MessageID).Marshal()
	if err != nil {
		metrics.AcksSent.WithLabelValues("failed").Inc()
		e.log.Error(ctx, "ack_encode_failed", "failed to encode acknowledgement", err, nil)
		return
	}

	if err := e.pub.Publish(contracts.AckTopic(identity), contracts.QoSAtMostOnce, body); err != nil {
		metrics.AcksSent.WithLabelValues("failed").Inc()
		e.log.Error(ctx, "ack_publish_failed", "failed to publish acknowledgement", err, map[string]any{"type": env.Type})
		return
	}
	metrics.AcksSent.WithLabelValues("sent").Inc()
}
