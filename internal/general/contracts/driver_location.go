package contracts

// DriverLocation is the high-frequency position ping of the assigned driver.
type DriverLocation struct {
	DriverID  string   `json:"driverId" validate:"required"`
	Latitude  float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Heading   *float64 `json:"heading,omitempty" validate:"omitempty,gte=0,lt=360"`
}

func (*DriverLocation) MessageType() MessageType { return TypeDriverLocation }
func (*DriverLocation) sealed()                  {}
