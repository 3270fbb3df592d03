package contracts

// RideRequest tells a driver a new ride offer is available. The client
// fetches the offer detail itself.
type RideRequest struct {
	RideID string `json:"rideId" validate:"required"`
}

// RideOfferExpired tells a driver an offer can no longer be accepted.
type RideOfferExpired struct {
	RideID string `json:"rideId" validate:"required"`
	Reason string `json:"reason,omitempty"`
}

func (*RideRequest) MessageType() MessageType      { return TypeRideRequest }
func (*RideRequest) sealed()                       {}
func (p *RideRequest) RideRef() string             { return p.RideID }
func (*RideOfferExpired) MessageType() MessageType { return TypeRideOfferExpired }
func (*RideOfferExpired) sealed()                  {}
func (p *RideOfferExpired) RideRef() string        { return p.RideID }
