package contracts

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":           `{{`,
		"empty":              ``,
		"array":              `[]`,
		"missing messageId":  `{"type":"ride-request","data":{"rideId":"r1"}}`,
		"numeric messageId":  `{"messageId":7,"type":"ride-request","data":{}}`,
		"blank messageId":    `{"messageId":"  ","type":"ride-request","data":{}}`,
		"missing type":       `{"messageId":"m1","data":{}}`,
		"missing data":       `{"messageId":"m1","type":"ride-request"}`,
		"null data":          `{"messageId":"m1","type":"ride-request","data":null}`,
		"scalar data":        `{"messageId":"m1","type":"ride-request","data":"r1"}`,
		"non string type":    `{"messageId":"m1","type":3,"data":{}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			env, err := Parse([]byte(raw))
			require.Error(t, err)
			assert.Nil(t, env)
			assert.True(t, errors.Is(err, ErrMalformedEnvelope), "got %v", err)
		})
	}
}

func TestParse_UnknownTypeIsWellFormed(t *testing.T) {
	env, err := Parse([]byte(`{"messageId":"m9","type":"surge-pricing","data":{"x":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "m9", env.MessageID)

	_, err = Decode(env)
	assert.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestDecode_RideAccepted(t *testing.T) {
	raw := `{"messageId":"m1","type":"ride-accepted","data":{"rideId":"r1","driverId":"d1","driverName":"Sam","vehiclePlate":"ABC123","estimatedArrivalMinutes":4}}`
	env, err := Parse([]byte(raw))
	require.NoError(t, err)

	p, err := Decode(env)
	require.NoError(t, err)

	accepted, ok := p.(*RideAccepted)
	require.True(t, ok)
	assert.Equal(t, "Sam", accepted.DriverName)
	assert.Equal(t, 4, accepted.EstimatedArrivalMinutes)
	assert.Equal(t, "r1", RideIDOf(p))
}

func TestDecode_InvalidPayload(t *testing.T) {
	cases := map[string]string{
		"accepted missing driverName": `{"messageId":"m1","type":"ride-accepted","data":{"rideId":"r1","driverId":"d1","vehiclePlate":"A","estimatedArrivalMinutes":1}}`,
		"cancelled bad party":         `{"messageId":"m2","type":"ride-cancelled","data":{"rideId":"r1","cancelledBy":"dispatcher"}}`,
		"location out of range":       `{"messageId":"m3","type":"driver-location","data":{"driverId":"d1","latitude":91,"longitude":0}}`,
		"chat wrong field type":       `{"messageId":"m4","type":"chat-message","data":{"id":5,"rideId":"r1","senderType":"rider"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			env, err := Parse([]byte(raw))
			require.NoError(t, err)
			_, err = Decode(env)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestDecode_EveryKnownTypeHasPayload(t *testing.T) {
	for _, mt := range AllMessageTypes() {
		p := newPayload(mt)
		require.NotNil(t, p, "no payload for %s", mt)
		assert.Equal(t, mt, p.MessageType())
	}
}

func TestNewAck(t *testing.T) {
	ack := NewAck("m1")
	assert.Equal(t, TypeAck, ack.Type)
	assert.NotEmpty(t, ack.MessageID)
	assert.NotEqual(t, "m1", ack.MessageID)

	raw, err := ack.Marshal()
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "ack", wire["type"])
	assert.Equal(t, map[string]any{"messageId": "m1"}, wire["data"])
}

func TestMessageType_RequiresAck(t *testing.T) {
	for _, mt := range AllMessageTypes() {
		assert.Equal(t, mt != TypeDriverLocation, mt.RequiresAck(), mt.String())
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "p-42", InboundTopic(" p-42 "))
	assert.Equal(t, "p-42/ack", AckTopic("p-42"))
}
