package rabbitmq

import (
	"context"
	"testing"
	"time"

	"ride-hail-realtime/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() ports.TransportOptions {
	return ports.TransportOptions{
		BrokerURL:      "amqp://127.0.0.1:1/",
		ClientID:       "rider-1_abc",
		Username:       "rider-1",
		Password:       "token-1",
		KeepAlive:      30 * time.Second,
		ConnectTimeout: time.Second,
	}
}

func TestDial_Validates(t *testing.T) {
	_, err := Dial(ports.TransportOptions{}, ports.TransportCallbacks{})
	assert.Error(t, err)

	_, err = Dial(ports.TransportOptions{BrokerURL: "http://nope"}, ports.TransportCallbacks{})
	assert.Error(t, err)
}

func TestTopology(t *testing.T) {
	assert.Equal(t, "client.rider-1_abc", queueName("rider-1_abc"))
	assert.Equal(t, "rider-1.ack", routingKey("rider-1/ack"))
	assert.Equal(t, "rider-1/ack", topicOf("rider-1.ack"))
}

func TestDialConfig_UsesCurrentPassword(t *testing.T) {
	tr, err := Dial(testOptions(), ports.TransportCallbacks{})
	require.NoError(t, err)

	// no open connection: the secret is only stored for the next dial
	require.NoError(t, tr.SetPassword("token-2"))

	cfg := tr.(*Transport).dialConfig()
	require.Len(t, cfg.SASL, 1)
	plain, ok := cfg.SASL[0].(*amqp.PlainAuth)
	require.True(t, ok)
	assert.Equal(t, "rider-1", plain.Username)
	assert.Equal(t, "token-2", plain.Password)
	assert.Equal(t, 30*time.Second, cfg.Heartbeat)
}

func TestPublish_NotConnected(t *testing.T) {
	tr, err := Dial(testOptions(), ports.TransportCallbacks{})
	require.NoError(t, err)

	assert.ErrorIs(t, tr.Publish("rider-1/ack", 0, []byte(`{}`)), errNotConnected)
}

func TestClose_Idempotent(t *testing.T) {
	tr, err := Dial(testOptions(), ports.TransportCallbacks{})
	require.NoError(t, err)

	require.NoError(t, tr.Subscribe("rider-1", 1))
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	assert.ErrorIs(t, tr.Connect(context.Background()), ErrClosed)
	assert.ErrorIs(t, tr.Subscribe("rider-1", 1), ErrClosed)
}
