package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/general/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publisherStub struct {
	connected bool
	identity  string
	err       error

	topics   []string
	qos      []byte
	payloads [][]byte
}

func (p *publisherStub) IsConnected() bool { return p.connected }
func (p *publisherStub) Identity() string  { return p.identity }
func (p *publisherStub) Publish(topic string, qos byte, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.qos = append(p.qos, qos)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestEmitter_PublishesAckAtMostOnce(t *testing.T) {
	pub := &publisherStub{connected: true, identity: "rider-1"}
	e := NewEmitter(pub, logger.Discard())

	e.Ack(context.Background(), &contracts.Envelope{MessageID: "m1", Type: contracts.TypeRideAccepted})

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "rider-1/ack", pub.topics[0])
	assert.Equal(t, contracts.QoSAtMostOnce, pub.qos[0])

	env, err := contracts.Parse(pub.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, contracts.TypeAck, env.Type)
	assert.NotEqual(t, "m1", env.MessageID)

	var ack contracts.Ack
	require.NoError(t, json.Unmarshal(env.Data, &ack))
	assert.Equal(t, "m1", ack.MessageID)
}

func TestEmitter_DropsWhileDisconnected(t *testing.T) {
	pub := &publisherStub{connected: false, identity: "rider-1"}
	NewEmitter(pub, logger.Discard()).Ack(context.Background(), &contracts.Envelope{MessageID: "m1", Type: contracts.TypeRideStarted})
	assert.Empty(t, pub.payloads)
}

func TestEmitter_PublishErrorIsSwallowed(t *testing.T) {
	pub := &publisherStub{connected: true, identity: "rider-1", err: errors.New("socket closed")}
	assert.NotPanics(t, func() {
		NewEmitter(pub, logger.Discard()).Ack(context.Background(), &contracts.Envelope{MessageID: "m1", Type: contracts.TypeRideStarted})
	})
}
