package contracts

import "time"

// CancelledBy names the party that cancelled a ride.
type CancelledBy string

const (
	CancelledByRider  CancelledBy = "rider"
	CancelledByDriver CancelledBy = "driver"
	CancelledBySystem CancelledBy = "system"
)

// RideCancelled is sent to both parties when a ride is cancelled.
type RideCancelled struct {
	RideID      string      `json:"rideId" validate:"required"`
	CancelledBy CancelledBy `json:"cancelledBy" validate:"required,oneof=rider driver system"`
	Reason      string      `json:"reason,omitempty"`
}

// RideStarted marks pickup completion.
type RideStarted struct {
	RideID    string    `json:"rideId" validate:"required"`
	StartedAt time.Time `json:"startedAt"`
}

// RideCompleted carries the final fare.
type RideCompleted struct {
	RideID      string    `json:"rideId" validate:"required"`
	CompletedAt time.Time `json:"completedAt"`
	ActualPrice float64   `json:"actualPrice" validate:"gte=0"`
	Currency    string    `json:"currency,omitempty"`
}

func (*RideCancelled) MessageType() MessageType { return TypeRideCancelled }
func (*RideCancelled) sealed()                  {}
func (p *RideCancelled) RideRef() string        { return p.RideID }
func (*RideStarted) MessageType() MessageType   { return TypeRideStarted }
func (*RideStarted) sealed()                    {}
func (p *RideStarted) RideRef() string          { return p.RideID }
func (*RideCompleted) MessageType() MessageType { return TypeRideCompleted }
func (*RideCompleted) sealed()                  {}
func (p *RideCompleted) RideRef() string        { return p.RideID }
