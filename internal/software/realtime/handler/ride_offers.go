package handler

import (
	"context"

	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/ports"
)

func (s *Set) rideRequest(ctx context.Context, p *contracts.RideRequest) error {
	s.cache.Invalidate(ports.KeyActiveRideOffers)
	s.notify(ctx, "New ride request", "A rider nearby is looking for a ride.",
		notificationData(contracts.TypeRideRequest, p.RideID))
	return nil
}

func (s *Set) rideOfferExpired(ctx context.Context, p *contracts.RideOfferExpired) error {
	s.cache.Invalidate(ports.KeyActiveRideOffers)
	body := "The ride offer is no longer available."
	if p.Reason != "" {
		body = "The ride offer expired: " + p.Reason + "."
	}
	s.notify(ctx, "Ride offer expired", body, notificationData(contracts.TypeRideOfferExpired, p.RideID))
	return nil
}
