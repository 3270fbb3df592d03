package contracts

// RideAccepted is sent to the rider once a driver accepts the ride.
type RideAccepted struct {
	RideID                  string `json:"rideId" validate:"required"`
	DriverID                string `json:"driverId" validate:"required"`
	DriverName              string `json:"driverName" validate:"required"`
	VehiclePlate            string `json:"vehiclePlate" validate:"required"`
	EstimatedArrivalMinutes int    `json:"estimatedArrivalMinutes" validate:"gte=0"`
}

func (*RideAccepted) MessageType() MessageType { return TypeRideAccepted }
func (*RideAccepted) sealed()                  {}
func (p *RideAccepted) RideRef() string        { return p.RideID }
