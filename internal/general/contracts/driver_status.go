package contracts

import "time"

// DriverNotFound tells the rider matching gave up.
type DriverNotFound struct {
	RideID string `json:"rideId" validate:"required"`
	Reason string `json:"reason,omitempty"`
}

// DriverArrived tells the rider the driver is at the pickup point.
type DriverArrived struct {
	RideID    string    `json:"rideId" validate:"required"`
	DriverID  string    `json:"driverId" validate:"required"`
	ArrivedAt time.Time `json:"arrivedAt"`
}

func (*DriverNotFound) MessageType() MessageType { return TypeDriverNotFound }
func (*DriverNotFound) sealed()                  {}
func (p *DriverNotFound) RideRef() string        { return p.RideID }
func (*DriverArrived) MessageType() MessageType  { return TypeDriverArrived }
func (*DriverArrived) sealed()                   {}
func (p *DriverArrived) RideRef() string         { return p.RideID }
