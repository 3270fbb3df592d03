package contracts

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Payload is implemented only by the typed payloads in this package, so a
// type switch over it is the complete list of message kinds.
type Payload interface {
	MessageType() MessageType
	sealed()
}

// RideScoped is implemented by payloads that belong to a single ride.
type RideScoped interface {
	RideRef() string
}

var payloadValidate = validator.New()

// newPayload returns an empty payload for t, or nil for unknown types.
func newPayload(t MessageType) Payload {
	switch t {
	case TypeRideRequest:
		return &RideRequest{}
	case TypeRideAccepted:
		return &RideAccepted{}
	case TypeRideCancelled:
		return &RideCancelled{}
	case TypeRideOfferExpired:
		return &RideOfferExpired{}
	case TypeRideStarted:
		return &RideStarted{}
	case TypeRideCompleted:
		return &RideCompleted{}
	case TypeDriverNotFound:
		return &DriverNotFound{}
	case TypeDriverLocation:
		return &DriverLocation{}
	case TypeDriverArrived:
		return &DriverArrived{}
	case TypeChatMessage:
		return &ChatMessage{}
	case TypeAck:
		return &Ack{}
	default:
		return nil
	}
}

// Decode narrows an envelope to its typed payload and checks the payload
// shape declared by the envelope type.
func Decode(env *Envelope) (Payload, error) {
	p := newPayload(env.Type)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
	if err := json.Unmarshal(env.Data, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Type, err)
	}
	if err := payloadValidate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Type, err)
	}
	return p, nil
}

// RideIDOf returns the ride a payload refers to, or "" when it has none.
func RideIDOf(p Payload) string {
	if rs, ok := p.(RideScoped); ok {
		return rs.RideRef()
	}
	return ""
}

// Ack acknowledges receipt of the envelope with MessageID.
type Ack struct {
	MessageID string `json:"messageId" validate:"required"`
}

func (*Ack) MessageType() MessageType { return TypeAck }
func (*Ack) sealed()                  {}
