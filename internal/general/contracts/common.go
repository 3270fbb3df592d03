package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrMalformedEnvelope means the raw bytes are not JSON or miss a required envelope field.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrUnknownMessageType means the envelope is well formed but its type is not recognised.
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrInvalidPayload means the data object does not match the shape declared by type.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Envelope is the unit of wire transmission in both directions.
type Envelope struct {
	MessageID string          `json:"messageId"`
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
}

// Parse validates the envelope shape only: messageId and type must be
// non-empty strings and data must be a JSON object. The payload itself is
// checked later by Decode.
func Parse(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	var problems []string
	if strings.TrimSpace(env.MessageID) == "" {
		problems = append(problems, "messageId is required")
	}
	if strings.TrimSpace(string(env.Type)) == "" {
		problems = append(problems, "type is required")
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || data[0] != '{' {
		problems = append(problems, "data must be an object")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformedEnvelope, strings.Join(problems, "; "))
	}

	return &env, nil
}

// Marshal encodes the envelope into its JSON wire form.
func (env Envelope) Marshal() ([]byte, error) {
	if len(env.Data) == 0 {
		env.Data = json.RawMessage(`{}`)
	}
	return json.Marshal(env)
}

// Encode wraps a typed payload into an envelope. An empty messageID gets a fresh one.
func Encode(messageID string, p Payload) (Envelope, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", p.MessageType(), err)
	}
	if messageID == "" {
		messageID = NewMessageID()
	}
	return Envelope{MessageID: messageID, Type: p.MessageType(), Data: data}, nil
}

// NewAck builds the acknowledgement for the envelope identified by correlatesWith.
func NewAck(correlatesWith string) Envelope {
	data, _ := json.Marshal(Ack{MessageID: correlatesWith})
	return Envelope{
		MessageID: NewMessageID(),
		Type:      TypeAck,
		Data:      data,
	}
}

// NewMessageID returns a new unique message id.
func NewMessageID() string {
	return uuid.NewString()
}
