package fakes

import (
	"context"
	"sync"

	"ride-hail-realtime/internal/domain/account"
	"ride-hail-realtime/internal/domain/chat"
	"ride-hail-realtime/internal/domain/ride"
	"ride-hail-realtime/internal/ports"
)

// RideAPI serves canned responses and counts calls.
type RideAPI struct {
	mu sync.Mutex

	Ride       *ride.ActiveRide
	RideErr    error
	Navigation *ride.Navigation
	NavErr     error
	Chat       []chat.Message
	ChatErr    error

	RideTypesResp []ride.RideTypeOption
	CatalogErr    error

	activeCalls int
	navCalls    int
	chatQueries []ports.ChatQuery
	catalog     int
}

var (
	_ ports.RideAPI    = (*RideAPI)(nil)
	_ ports.CatalogAPI = (*RideAPI)(nil)
)

func (f *RideAPI) ActiveRide(context.Context) (*ride.ActiveRide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeCalls++
	return f.Ride, f.RideErr
}

func (f *RideAPI) RideNavigation(_ context.Context, rideID string) (*ride.Navigation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navCalls++
	if f.NavErr != nil {
		return nil, f.NavErr
	}
	if f.Navigation != nil {
		return f.Navigation, nil
	}
	return &ride.Navigation{RideID: rideID}, nil
}

func (f *RideAPI) ChatMessages(_ context.Context, _ string, q ports.ChatQuery) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatQueries = append(f.chatQueries, q)
	return f.Chat, f.ChatErr
}

func (f *RideAPI) RideTypes(context.Context) ([]ride.RideTypeOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog++
	return f.RideTypesResp, f.CatalogErr
}

func (f *RideAPI) PaymentMethods(context.Context) ([]account.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog++
	return []account.PaymentMethod{{ID: "pm1", Brand: "visa", IsDefault: true}}, f.CatalogErr
}

func (f *RideAPI) Plans(context.Context) ([]account.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog++
	return []account.Plan{{ID: "basic", Name: "Basic"}}, f.CatalogErr
}

func (f *RideAPI) ActiveRideCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeCalls
}

func (f *RideAPI) NavigationCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.navCalls
}

func (f *RideAPI) CatalogCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalog
}

func (f *RideAPI) ChatQueries() []ports.ChatQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.ChatQuery(nil), f.chatQueries...)
}

// SetRide swaps the canned active ride.
func (f *RideAPI) SetRide(r *ride.ActiveRide) {
	f.mu.Lock()
	f.Ride = r
	f.mu.Unlock()
}

// Notifier records notifications.
type Notifier struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (n *Notifier) Notify(_ context.Context, note ports.Notification) {
	n.mu.Lock()
	n.sent = append(n.sent, note)
	n.mu.Unlock()
}

func (n *Notifier) Sent() []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.Notification(nil), n.sent...)
}
