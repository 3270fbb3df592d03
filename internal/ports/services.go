package ports

import (
	"context"
	"time"

	"ride-hail-realtime/internal/domain/account"
	"ride-hail-realtime/internal/domain/chat"
	"ride-hail-realtime/internal/domain/ride"
)

// ----- REST collaborators -----

// CredentialAPI issues the short-lived credential used as the transport password.
type CredentialAPI interface {
	ConnectionToken(ctx context.Context) (string, error)
}

// ChatQuery selects a window of chat history. Zero values mean "unbounded".
type ChatQuery struct {
	Since  time.Time
	Before time.Time
	Limit  int
}

// RideAPI is the part of the ride REST API the realtime pipeline reads.
type RideAPI interface {
	// ActiveRide returns nil (and no error) when the user has no ride in progress.
	ActiveRide(ctx context.Context) (*ride.ActiveRide, error)
	RideNavigation(ctx context.Context, rideID string) (*ride.Navigation, error)
	ChatMessages(ctx context.Context, rideID string, q ChatQuery) ([]chat.Message, error)
}

// CatalogAPI serves the once-per-session reference data.
type CatalogAPI interface {
	RideTypes(ctx context.Context) ([]ride.RideTypeOption, error)
	PaymentMethods(ctx context.Context) ([]account.PaymentMethod, error)
	Plans(ctx context.Context) ([]account.Plan, error)
}

// ----- Local state collaborators -----

// QueryCache is the client's reactive query cache. Invalidate marks stale
// every entry whose key equals key or starts with key followed by ':'.
// Stale entries stay readable until they are refetched.
type QueryCache interface {
	Get(key QueryKey) (any, bool)
	Set(key QueryKey, value any)
	Invalidate(key QueryKey)
}

// Flag is a UI-state container: it holds a payload and a visibility bit and
// carries no business logic.
type Flag interface {
	Show(data any)
	Dismiss()
	Visible() bool
	Data() any
}

// Flags is the set of UI-state containers the event handlers write into.
type Flags struct {
	RideCancelled  Flag
	DriverNotFound Flag
	DriverArrived  Flag
	RideCompleted  Flag
}

// Notification is a local, platform-delivered notification.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notifier triggers local notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
