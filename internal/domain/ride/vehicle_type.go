package ride

import (
	"errors"
	"strings"
)

// VehicleType is a bookable ride type.
type VehicleType string

const (
	VehicleEconomy VehicleType = "ECONOMY"
	VehiclePremium VehicleType = "PREMIUM"
	VehicleXL      VehicleType = "XL"
)

var ErrInvalidVehicleType = errors.New("invalid vehicle type")

// ParseVehicleType normalizes (uppercases+trims) and validates a vehicle type string.
func ParseVehicleType(in string) (VehicleType, error) {
	vt := VehicleType(strings.ToUpper(strings.TrimSpace(in)))
	if vt.Valid() {
		return vt, nil
	}
	return "", ErrInvalidVehicleType
}

// Valid reports whether vehicleType is one of the allowed vehicle type constants.
func (vehicleType VehicleType) Valid() bool {
	switch vehicleType {
	case VehicleEconomy, VehiclePremium, VehicleXL:
		return true
	default:
		return false
	}
}

// String returns the string representation of the VehicleType.
func (vehicleType VehicleType) String() string {
	return string(vehicleType)
}

// RideTypeOption is one entry of the ride type catalog fetched once per session.
type RideTypeOption struct {
	Type        VehicleType `json:"type"`
	DisplayName string      `json:"displayName"`
	BaseFare    float64     `json:"baseFare"`
	PerKMFare   float64     `json:"perKmFare"`
	Seats       int         `json:"seats"`
}

// UnmarshalText accepts any casing ("economy", "ECONOMY").
func (vehicleType *VehicleType) UnmarshalText(b []byte) error {
	parsed, err := ParseVehicleType(string(b))
	if err != nil {
		return err
	}
	*vehicleType = parsed
	return nil
}
