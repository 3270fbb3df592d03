package ride

import (
	"time"

	"ride-hail-realtime/internal/domain/geo"
)

// ActiveRide is the client-side snapshot of the ride the user is currently in.
// It is what the "active ride" cache entry holds.
type ActiveRide struct {
	ID                      string      `json:"id"`
	Status                  Status      `json:"status"`
	RiderID                 string      `json:"riderId"`
	DriverID                string      `json:"driverId,omitempty"`
	DriverName              string      `json:"driverName,omitempty"`
	VehiclePlate            string      `json:"vehiclePlate,omitempty"`
	VehicleType             VehicleType `json:"vehicleType,omitempty"`
	Pickup                  geo.Point   `json:"pickup"`
	Destination             geo.Point   `json:"destination"`
	EstimatedFare           float64     `json:"estimatedFare,omitempty"`
	EstimatedArrivalMinutes int         `json:"estimatedArrivalMinutes,omitempty"`
	RequestedAt             time.Time   `json:"requestedAt"`
}

// Navigation is the live routing view of a ride: where the driver is and
// how far away the next stop is.
type Navigation struct {
	RideID         string      `json:"rideId"`
	DriverLocation *geo.Point  `json:"driverLocation,omitempty"`
	NextStop       geo.Point   `json:"nextStop"`
	Route          []geo.Point `json:"route,omitempty"`
	ETAMinutes     int         `json:"etaMinutes"`
	DistanceKM     float64     `json:"distanceKm"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Offer is a pending ride request shown to a driver.
type Offer struct {
	RideID             string      `json:"rideId"`
	VehicleType        VehicleType `json:"vehicleType"`
	Pickup             geo.Point   `json:"pickup"`
	Destination        geo.Point   `json:"destination"`
	EstimatedFare      float64     `json:"estimatedFare"`
	DistanceToPickupKM float64     `json:"distanceToPickupKm"`
	ExpiresAt          time.Time   `json:"expiresAt"`
}

// InProgress reports whether the snapshot still represents a live ride.
func (r *ActiveRide) InProgress() bool {
	return r != nil && !r.Status.Terminal()
}
