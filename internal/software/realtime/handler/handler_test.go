package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ride-hail-realtime/internal/domain/ride"
	"ride-hail-realtime/internal/domain/user"
	"ride-hail-realtime/internal/general/cache"
	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/general/metrics"
	"ride-hail-realtime/internal/general/uistate"
	"ride-hail-realtime/internal/ports"
	"ride-hail-realtime/internal/software/realtime/dispatch"
	"ride-hail-realtime/internal/software/realtime/fakes"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatStub struct {
	mu    sync.Mutex
	rides []string
	err   error
}

func (c *chatStub) Sync(_ context.Context, rideID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rides = append(c.rides, rideID)
	return c.err
}

type fixture struct {
	store    *cache.Store
	flags    *uistate.Set
	notifier *fakes.Notifier
	chat     *chatStub
	set      *Set

	mu      sync.Mutex
	changes []cache.Change
}

func newFixture(role user.Role) *fixture {
	f := &fixture{store: cache.New(), notifier: &fakes.Notifier{}, chat: &chatStub{}}
	f.flags = uistate.NewSet(f.store)
	f.store.Observe(func(c cache.Change) {
		f.mu.Lock()
		f.changes = append(f.changes, c)
		f.mu.Unlock()
	})
	f.set = NewSet(Deps{
		Role:     role,
		Cache:    f.store,
		Flags:    f.flags.Ports(),
		Notifier: f.notifier,
		Chat:     f.chat,
		Logger:   logger.Discard(),
	})
	return f
}

func (f *fixture) invalidated() []ports.QueryKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.QueryKey
	for _, c := range f.changes {
		if c.Op == cache.OpInvalidate {
			out = append(out, c.Key)
		}
	}
	return out
}

func (f *fixture) handle(t *testing.T, id string, p contracts.Payload) {
	t.Helper()
	env, err := contracts.Encode(id, p)
	require.NoError(t, err)
	require.NoError(t, f.set.Handle(context.Background(), &env, p))
}

func payloadFixtures() map[contracts.MessageType]contracts.Payload {
	return map[contracts.MessageType]contracts.Payload{
		contracts.TypeRideRequest:      &contracts.RideRequest{RideID: "r1"},
		contracts.TypeRideAccepted:     &contracts.RideAccepted{RideID: "r1", DriverID: "d1", DriverName: "Sam", VehiclePlate: "ABC123", EstimatedArrivalMinutes: 4},
		contracts.TypeRideCancelled:    &contracts.RideCancelled{RideID: "r1", CancelledBy: contracts.CancelledByDriver},
		contracts.TypeRideOfferExpired: &contracts.RideOfferExpired{RideID: "r1"},
		contracts.TypeRideStarted:      &contracts.RideStarted{RideID: "r1"},
		contracts.TypeRideCompleted:    &contracts.RideCompleted{RideID: "r1", ActualPrice: 12.5, Currency: "USD"},
		contracts.TypeDriverNotFound:   &contracts.DriverNotFound{RideID: "r1"},
		contracts.TypeDriverLocation:   &contracts.DriverLocation{DriverID: "d1", Latitude: 43.2, Longitude: 76.9},
		contracts.TypeDriverArrived:    &contracts.DriverArrived{RideID: "r1", DriverID: "d1"},
		contracts.TypeChatMessage:      &contracts.ChatMessage{ID: "c1", RideID: "r1", Body: "hi", SenderType: contracts.SenderDriver},
		contracts.TypeAck:              &contracts.Ack{MessageID: "m0"},
	}
}

func TestHandle_EveryTypeHasAHandler(t *testing.T) {
	f := newFixture(user.RoleRider)
	fixtures := payloadFixtures()

	for _, mt := range contracts.AllMessageTypes() {
		p, ok := fixtures[mt]
		require.True(t, ok, "missing fixture for %s", mt)
		f.handle(t, contracts.NewMessageID(), p)
	}
	for _, mt := range contracts.AllMessageTypes() {
		assert.Zero(t, testutil.ToFloat64(metrics.UnhandledPayloads.WithLabelValues(string(mt))), "unhandled %s", mt)
	}
}

func TestRideAccepted(t *testing.T) {
	f := newFixture(user.RoleRider)
	f.handle(t, "m1", payloadFixtures()[contracts.TypeRideAccepted])

	assert.Equal(t, []ports.QueryKey{ports.KeyActiveRide}, f.invalidated())
	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "Sam")
	assert.Contains(t, sent[0].Body, "4")
	assert.Equal(t, "r1", sent[0].Data["rideId"])
}

func TestRideRequestAndExpiry(t *testing.T) {
	f := newFixture(user.RoleDriver)
	f.handle(t, "m1", &contracts.RideRequest{RideID: "r1"})
	f.handle(t, "m2", &contracts.RideOfferExpired{RideID: "r1", Reason: "timeout"})

	assert.Equal(t, []ports.QueryKey{ports.KeyActiveRideOffers, ports.KeyActiveRideOffers}, f.invalidated())
	assert.Len(t, f.notifier.Sent(), 2)
}

func TestRideCancelled_FlagOnlyWithActiveRide(t *testing.T) {
	f := newFixture(user.RoleRider)
	p := &contracts.RideCancelled{RideID: "r1", CancelledBy: contracts.CancelledBySystem}

	f.handle(t, "m1", p)
	assert.False(t, f.flags.Ports().RideCancelled.Visible())

	f.store.Set(ports.KeyActiveRide, &ride.ActiveRide{ID: "r1"})
	f.handle(t, "m2", p)
	assert.True(t, f.flags.Ports().RideCancelled.Visible())
	assert.Same(t, p, f.flags.Ports().RideCancelled.Data())

	assert.Len(t, f.notifier.Sent(), 2)
	assert.Equal(t, []ports.QueryKey{ports.KeyActiveRideOffers, ports.KeyActiveRideOffers}, f.invalidated())
}

func TestRideCancelled_AfterAcceptStillShowsFlag(t *testing.T) {
	f := newFixture(user.RoleRider)
	f.store.Set(ports.KeyActiveRide, &ride.ActiveRide{ID: "r1"})

	f.handle(t, "m1", payloadFixtures()[contracts.TypeRideAccepted])
	require.True(t, f.store.Stale(ports.KeyActiveRide))

	f.handle(t, "m2", payloadFixtures()[contracts.TypeRideCancelled])
	assert.True(t, f.flags.Ports().RideCancelled.Visible())
	assert.Len(t, f.notifier.Sent(), 2)
}

func TestRideCancelled_NilRideDoesNotCount(t *testing.T) {
	f := newFixture(user.RoleRider)
	f.store.Set(ports.KeyActiveRide, (*ride.ActiveRide)(nil))
	f.handle(t, "m1", &contracts.RideCancelled{RideID: "r1", CancelledBy: contracts.CancelledByRider})
	assert.False(t, f.flags.Ports().RideCancelled.Visible())
}

func TestDriverLocation_OnlyInvalidatesNavigation(t *testing.T) {
	f := newFixture(user.RoleRider)
	f.handle(t, "m1", payloadFixtures()[contracts.TypeDriverLocation])

	assert.Equal(t, []ports.QueryKey{ports.KeyRideNavigation}, f.invalidated())
	assert.Empty(t, f.notifier.Sent())
}

func TestDriverArrivedAndNotFound(t *testing.T) {
	f := newFixture(user.RoleRider)
	f.handle(t, "m1", payloadFixtures()[contracts.TypeDriverNotFound])
	f.handle(t, "m2", payloadFixtures()[contracts.TypeDriverArrived])

	flags := f.flags.Ports()
	assert.True(t, flags.DriverNotFound.Visible())
	assert.True(t, flags.DriverArrived.Visible())
	assert.Equal(t, []ports.QueryKey{ports.KeyActiveRide}, f.invalidated())
	assert.Len(t, f.notifier.Sent(), 2)
}

func TestRideCompleted_DismissalInvalidatesActiveRide(t *testing.T) {
	f := newFixture(user.RoleRider)
	f.handle(t, "m1", payloadFixtures()[contracts.TypeRideCompleted])

	assert.Empty(t, f.invalidated())
	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "12.50")

	f.flags.Ports().RideCompleted.Dismiss()
	assert.Equal(t, []ports.QueryKey{ports.KeyActiveRide}, f.invalidated())
}

func TestFormatPrice_UnknownCurrencyFallsBack(t *testing.T) {
	assert.Contains(t, formatPrice(7, ""), "7.00")
	assert.Contains(t, formatPrice(7, "???"), "7.00")
}

func TestChatMessage(t *testing.T) {
	cases := []struct {
		name   string
		role   user.Role
		sender contracts.SenderType
		notify bool
	}{
		{"rider hears driver", user.RoleRider, contracts.SenderDriver, true},
		{"rider own echo", user.RoleRider, contracts.SenderRider, false},
		{"driver hears rider", user.RoleDriver, contracts.SenderRider, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(tc.role)
			f.handle(t, "m1", &contracts.ChatMessage{ID: "c1", RideID: "r1", Body: "hello", SenderType: tc.sender})

			assert.Equal(t, []string{"r1"}, f.chat.rides)
			if tc.notify {
				require.Len(t, f.notifier.Sent(), 1)
				assert.Equal(t, "hello", f.notifier.Sent()[0].Body)
			} else {
				assert.Empty(t, f.notifier.Sent())
			}
		})
	}
}

func TestChatMessage_SyncFailureStillNotifies(t *testing.T) {
	f := newFixture(user.RoleRider)
	f.chat.err = errors.New("chat api down")
	f.handle(t, "m1", &contracts.ChatMessage{ID: "c1", RideID: "r1", Body: "hello", SenderType: contracts.SenderDriver})
	assert.Len(t, f.notifier.Sent(), 1)
}

type offline struct{}

func (offline) IsConnected() bool                  { return false }
func (offline) Identity() string                   { return "rider-1" }
func (offline) Publish(string, byte, []byte) error { return nil }

// A cancellation followed by a location ping must show the flag before the
// navigation entry is invalidated when both go through the queue.
func TestQueue_CancelThenLocationOrdering(t *testing.T) {
	f := newFixture(user.RoleRider)
	f.store.Set(ports.KeyActiveRide, &ride.ActiveRide{ID: "r1"})

	var mu sync.Mutex
	var events []string
	f.flags.Observe(func(s uistate.Snapshot) {
		mu.Lock()
		events = append(events, "flag:"+string(s.Name))
		mu.Unlock()
	})
	f.store.Observe(func(c cache.Change) {
		if c.Key == ports.KeyRideNavigation {
			mu.Lock()
			events = append(events, "invalidate:"+string(c.Key))
			mu.Unlock()
		}
	})

	q := dispatch.New(f.set, dispatch.NewEmitter(offline{}, logger.Discard()), logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = q.Run(ctx) }()

	for _, p := range []contracts.Payload{
		&contracts.RideCancelled{RideID: "r1", CancelledBy: contracts.CancelledByDriver},
		&contracts.DriverLocation{DriverID: "d1", Latitude: 1, Longitude: 2},
	} {
		env, err := contracts.Encode("", p)
		require.NoError(t, err)
		raw, err := env.Marshal()
		require.NoError(t, err)
		q.Enqueue(raw)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"flag:ride-cancelled", "invalidate:ride-navigation"}, events)
}
