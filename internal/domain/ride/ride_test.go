package ride

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveRide_DecodesAnyCasing(t *testing.T) {
	var r ActiveRide
	require.NoError(t, json.Unmarshal([]byte(`{"id":"r1","status":"in_progress","vehicleType":"premium"}`), &r))
	assert.Equal(t, StatusInProgress, r.Status)
	assert.Equal(t, VehiclePremium, r.VehicleType)
	assert.False(t, r.Status.Terminal())

	err := json.Unmarshal([]byte(`{"id":"r1","status":"parked"}`), &r)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		assert.True(t, s.Terminal(), s)
	}
	_, err := ParseVehicleType("limo")
	assert.ErrorIs(t, err, ErrInvalidVehicleType)
}
