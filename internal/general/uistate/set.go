package uistate

import (
	"context"
	"fmt"

	"ride-hail-realtime/internal/ports"
)

// Set groups the four ride flags and looks them up by name.
type Set struct {
	flags map[Name]*Flag
}

// RideCompletedDismissed builds the dismissal callback of the ride-completed
// flag: closing the completion summary is what invalidates the active ride.
func RideCompletedDismissed(cache ports.QueryCache) func(any) {
	return func(any) {
		cache.Invalidate(ports.KeyActiveRide)
	}
}

// NewSet creates the flags. The ride-completed flag invalidates the cached
// active ride when dismissed.
func NewSet(cache ports.QueryCache) *Set {
	return &Set{flags: map[Name]*Flag{
		RideCancelled:  NewFlag(RideCancelled),
		DriverNotFound: NewFlag(DriverNotFound),
		DriverArrived:  NewFlag(DriverArrived),
		RideCompleted:  NewFlag(RideCompleted, OnDismiss(RideCompletedDismissed(cache))),
	}}
}

// Ports exposes the flags as the handler-facing bundle.
func (s *Set) Ports() ports.Flags {
	return ports.Flags{
		RideCancelled:  s.flags[RideCancelled],
		DriverNotFound: s.flags[DriverNotFound],
		DriverArrived:  s.flags[DriverArrived],
		RideCompleted:  s.flags[RideCompleted],
	}
}

// Lookup returns the named flag.
func (s *Set) Lookup(name Name) (*Flag, error) {
	f, ok := s.flags[name]
	if !ok {
		return nil, fmt.Errorf("unknown flag %q", name)
	}
	return f, nil
}

// Snapshots returns every flag's state in a stable order.
func (s *Set) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(s.flags))
	for _, n := range []Name{RideCancelled, DriverNotFound, DriverArrived, RideCompleted} {
		out = append(out, s.flags[n].Snapshot())
	}
	return out
}

// Observe registers fn on every flag.
func (s *Set) Observe(fn func(Snapshot)) {
	for _, f := range s.flags {
		f.Observe(fn)
	}
}

// Dismiss hides the named flag.
func (s *Set) Dismiss(_ context.Context, name Name) error {
	f, err := s.Lookup(name)
	if err != nil {
		return err
	}
	f.Dismiss()
	return nil
}
