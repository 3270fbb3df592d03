package contracts

import "strings"

// MessageType is the closed set of envelope kinds understood by the client.
type MessageType string

const (
	TypeRideRequest      MessageType = "ride-request"
	TypeRideAccepted     MessageType = "ride-accepted"
	TypeRideCancelled    MessageType = "ride-cancelled"
	TypeRideOfferExpired MessageType = "ride-offer-expired"
	TypeRideStarted      MessageType = "ride-started"
	TypeRideCompleted    MessageType = "ride-completed"
	TypeDriverNotFound   MessageType = "driver-not-found"
	TypeDriverLocation   MessageType = "driver-location"
	TypeDriverArrived    MessageType = "driver-arrived"
	TypeChatMessage      MessageType = "chat-message"
	TypeAck              MessageType = "ack"
)

var allMessageTypes = []MessageType{
	TypeRideRequest,
	TypeRideAccepted,
	TypeRideCancelled,
	TypeRideOfferExpired,
	TypeRideStarted,
	TypeRideCompleted,
	TypeDriverNotFound,
	TypeDriverLocation,
	TypeDriverArrived,
	TypeChatMessage,
	TypeAck,
}

// AllMessageTypes returns every known message type in declaration order.
func AllMessageTypes() []MessageType {
	out := make([]MessageType, len(allMessageTypes))
	copy(out, allMessageTypes)
	return out
}

// ParseMessageType trims and validates a message type string.
func ParseMessageType(input string) (MessageType, error) {
	t := MessageType(strings.TrimSpace(input))
	if t.Valid() {
		return t, nil
	}
	return "", ErrUnknownMessageType
}

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case TypeRideRequest,
		TypeRideAccepted,
		TypeRideCancelled,
		TypeRideOfferExpired,
		TypeRideStarted,
		TypeRideCompleted,
		TypeDriverNotFound,
		TypeDriverLocation,
		TypeDriverArrived,
		TypeChatMessage,
		TypeAck:
		return true
	default:
		return false
	}
}

// RequiresAck reports whether receipt of this type is acknowledged.
// Location pings are high frequency and never acknowledged.
func (t MessageType) RequiresAck() bool {
	return t != TypeDriverLocation
}

// String returns the string representation of the MessageType.
func (t MessageType) String() string {
	return string(t)
}
