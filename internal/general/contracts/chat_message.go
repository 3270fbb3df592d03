package contracts

import "time"

// SenderType identifies which side of the ride wrote a chat message.
type SenderType string

const (
	SenderRider  SenderType = "rider"
	SenderDriver SenderType = "driver"
)

// ChatMessage is a ride chat line pushed to the counterparty.
type ChatMessage struct {
	ID         string         `json:"id" validate:"required"`
	RideID     string         `json:"rideId" validate:"required"`
	Body       string         `json:"body"`
	SenderType SenderType     `json:"senderType" validate:"required,oneof=rider driver"`
	Kind       string         `json:"messageType"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (*ChatMessage) MessageType() MessageType { return TypeChatMessage }
func (*ChatMessage) sealed()                  {}
func (p *ChatMessage) RideRef() string        { return p.RideID }
