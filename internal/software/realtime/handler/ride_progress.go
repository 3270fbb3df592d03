package handler

import (
	"context"
	"fmt"

	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/ports"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func (s *Set) rideAccepted(ctx context.Context, p *contracts.RideAccepted) error {
	s.cache.Invalidate(ports.KeyActiveRide)

	body := fmt.Sprintf("%s is on the way, arriving in %d min (%s).",
		p.DriverName, p.EstimatedArrivalMinutes, p.VehiclePlate)
	s.notify(ctx, "Driver found", body, notificationData(contracts.TypeRideAccepted, p.RideID))
	return nil
}

func (s *Set) driverArrived(ctx context.Context, p *contracts.DriverArrived) error {
	s.flags.DriverArrived.Show(p)
	s.cache.Invalidate(ports.KeyActiveRide)
	s.notify(ctx, "Your driver has arrived", "Meet your driver at the pickup point.",
		notificationData(contracts.TypeDriverArrived, p.RideID))
	return nil
}

func (s *Set) rideStarted(ctx context.Context, p *contracts.RideStarted) error {
	s.cache.Invalidate(ports.KeyActiveRide)
	s.notify(ctx, "Ride started", "Enjoy your trip.", notificationData(contracts.TypeRideStarted, p.RideID))
	return nil
}

// rideCompleted leaves the cached active ride alone; the ride-completed
// flag invalidates it once the summary is dismissed.
func (s *Set) rideCompleted(ctx context.Context, p *contracts.RideCompleted) error {
	s.flags.RideCompleted.Show(p)
	s.notify(ctx, "Ride completed", "Total fare: "+formatPrice(p.ActualPrice, p.Currency)+".",
		notificationData(contracts.TypeRideCompleted, p.RideID))
	return nil
}

// formatPrice renders amount in code, falling back to USD for an empty or
// unknown currency code.
func formatPrice(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	return message.NewPrinter(language.English).Sprint(currency.Symbol(unit.Amount(amount)))
}

func (s *Set) driverLocation(_ context.Context, _ *contracts.DriverLocation) error {
	s.cache.Invalidate(ports.KeyRideNavigation)
	return nil
}
