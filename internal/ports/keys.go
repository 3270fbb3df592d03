package ports

import "strings"

// QueryKey names a logical cache entry. Segments are joined with ':' so that
// invalidating a prefix covers every entry below it.
type QueryKey string

const (
	KeyActiveRide       QueryKey = "active-ride"
	KeyActiveRideOffers QueryKey = "active-ride-offers"
	KeyRideNavigation   QueryKey = "ride-navigation"
	KeyChat             QueryKey = "chat"
	KeyRideTypes        QueryKey = "ride-types"
	KeyPaymentMethods   QueryKey = "payment-methods"
	KeyPlans            QueryKey = "plans"
)

// Child returns the key for one member below k, e.g. ride-navigation:r1.
func (k QueryKey) Child(id string) QueryKey {
	return QueryKey(string(k) + ":" + strings.TrimSpace(id))
}

// Covers reports whether invalidating k also invalidates other.
func (k QueryKey) Covers(other QueryKey) bool {
	return other == k || strings.HasPrefix(string(other), string(k)+":")
}

// NavigationKey is the cache key of a ride's navigation detail.
func NavigationKey(rideID string) QueryKey { return KeyRideNavigation.Child(rideID) }

// ChatKey is the cache key of a ride's chat history.
func ChatKey(rideID string) QueryKey { return KeyChat.Child(rideID) }
