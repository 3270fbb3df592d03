package handler

import (
	"context"

	"ride-hail-realtime/internal/domain/ride"
	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/ports"
)

// rideCancelled shows the cancellation flag only when the user still has an
// active ride cached; a cancelled offer the user never accepted is silent.
func (s *Set) rideCancelled(ctx context.Context, p *contracts.RideCancelled) error {
	s.cache.Invalidate(ports.KeyActiveRideOffers)

	if s.hasActiveRide() {
		s.flags.RideCancelled.Show(p)
	}

	body := "Your ride was cancelled."
	switch p.CancelledBy {
	case contracts.CancelledByDriver:
		body = "Your driver cancelled the ride."
	case contracts.CancelledByRider:
		body = "The rider cancelled the ride."
	}
	s.notify(ctx, "Ride cancelled", body, notificationData(contracts.TypeRideCancelled, p.RideID))
	return nil
}

func (s *Set) driverNotFound(ctx context.Context, p *contracts.DriverNotFound) error {
	s.flags.DriverNotFound.Show(p)
	s.notify(ctx, "No drivers available", "We could not find a driver for your ride.",
		notificationData(contracts.TypeDriverNotFound, p.RideID))
	return nil
}

func (s *Set) hasActiveRide() bool {
	v, ok := s.cache.Get(ports.KeyActiveRide)
	if !ok {
		return false
	}
	r, ok := v.(*ride.ActiveRide)
	return ok && r != nil
}
