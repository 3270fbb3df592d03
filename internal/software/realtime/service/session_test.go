package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/domain/ride"
	"ride-hail-realtime/internal/general/cache"
	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/ports"
	"ride-hail-realtime/internal/software/realtime/broker"
	"ride-hail-realtime/internal/software/realtime/credential"
	"ride-hail-realtime/internal/software/realtime/dispatch"
	"ride-hail-realtime/internal/software/realtime/fakes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenAPI struct {
	mu     sync.Mutex
	tokens []string
	calls  int
}

func (a *tokenAPI) ConnectionToken(context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.calls
	if i >= len(a.tokens) {
		i = len(a.tokens) - 1
	}
	a.calls++
	return a.tokens[i], nil
}

type sessionEnv struct {
	api      *fakes.RideAPI
	dialer   *fakes.Dialer
	supplier *credential.Supplier
	store    *cache.Store
	session  *Session
}

func newSessionEnv(t *testing.T, tokens ...string) *sessionEnv {
	t.Helper()
	log := logger.Discard()
	env := &sessionEnv{
		api:    &fakes.RideAPI{Ride: &ride.ActiveRide{ID: "r1", Status: ride.StatusInProgress}},
		dialer: &fakes.Dialer{},
		store:  cache.New(),
	}
	env.supplier = credential.NewSupplier(&tokenAPI{tokens: tokens}, time.Hour, log)
	manager := broker.NewManager(env.dialer.Dial, "ws://broker.local/mqtt", "", log)
	queue := dispatch.New(dispatch.HandlerFunc(func(context.Context, *contracts.Envelope, contracts.Payload) error { return nil }),
		dispatch.NewEmitter(manager, log), log)
	rec := NewReconciler(env.api, env.api, env.store, NewChatSync(env.api, env.store, log), log)

	env.session = NewSession(SessionDeps{
		Identity:   "rider-1",
		Supplier:   env.supplier,
		Manager:    manager,
		Queue:      queue,
		Reconciler: rec,
		Logger:     log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, env.session.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = env.session.Close()
	})
	return env
}

// connectAndPrefetch reports the first connect and waits for the session
// prefetch to finish.
func (e *sessionEnv) connectAndPrefetch(t *testing.T) *fakes.Transport {
	t.Helper()
	tr := e.dialer.Last()
	require.NotNil(t, tr)
	tr.Emit(connection.EventConnect, nil)
	require.Eventually(t, func() bool {
		return e.api.ActiveRideCalls() == 1 && e.api.CatalogCalls() == 3
	}, time.Second, 5*time.Millisecond)
	return tr
}

func TestSession_StartSubscribesInboundTopic(t *testing.T) {
	env := newSessionEnv(t, "tok-1")

	tr := env.dialer.Last()
	require.NotNil(t, tr)
	assert.Equal(t, "tok-1", tr.Opts.Password)
	assert.Equal(t, "rider-1", tr.Opts.Username)
	require.Eventually(t, func() bool {
		return len(tr.Subscribed()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"rider-1"}, tr.Subscribed())
}

func TestSession_ReconnectRefetchesActiveRideOnce(t *testing.T) {
	env := newSessionEnv(t, "tok-1")
	tr := env.connectAndPrefetch(t)

	v, ok := env.store.Get(ports.KeyActiveRide)
	require.True(t, ok)
	assert.Equal(t, "r1", v.(*ride.ActiveRide).ID)

	tr.Emit(connection.EventOffline, errors.New("network lost"))
	tr.Emit(connection.EventReconnect, nil)
	tr.Emit(connection.EventConnect, nil)

	require.Eventually(t, func() bool { return env.api.ActiveRideCalls() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, env.api.ActiveRideCalls())
	assert.Equal(t, 3, env.api.CatalogCalls())
	assert.Equal(t, 1, env.dialer.Count())
}

func TestSession_CredentialRefreshRebindsInPlace(t *testing.T) {
	env := newSessionEnv(t, "tok-1", "tok-2")
	tr := env.connectAndPrefetch(t)

	require.NoError(t, env.supplier.Refresh(context.Background()))

	assert.Equal(t, []string{"tok-2"}, tr.Passwords())
	assert.Equal(t, 1, env.dialer.Count())
	assert.Equal(t, 1, tr.Connects())
	assert.Zero(t, tr.Closes())
}

func TestSession_ForegroundReconcilesOnce(t *testing.T) {
	env := newSessionEnv(t, "tok-1")
	first := env.connectAndPrefetch(t)
	ctx := context.Background()
	lc := env.session.Lifecycle()

	require.NoError(t, lc.Background(ctx))
	assert.Equal(t, 1, first.Closes())
	assert.True(t, lc.InBackground())

	require.NoError(t, lc.Foreground(ctx))
	assert.Equal(t, 2, env.api.ActiveRideCalls())
	require.Equal(t, 2, env.dialer.Count())

	second := env.dialer.Last()
	second.Emit(connection.EventConnect, nil)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, env.api.ActiveRideCalls())

	// The suppression is one-shot: a later recovery reconciles again.
	second.Emit(connection.EventOffline, nil)
	second.Emit(connection.EventReconnect, nil)
	second.Emit(connection.EventConnect, nil)
	require.Eventually(t, func() bool { return env.api.ActiveRideCalls() == 3 }, time.Second, 5*time.Millisecond)
}

func TestSession_RevokeClosesConnection(t *testing.T) {
	env := newSessionEnv(t, "tok-1")
	tr := env.connectAndPrefetch(t)

	require.NoError(t, env.session.Revoke())
	assert.Equal(t, 1, tr.Closes())
	assert.False(t, env.supplier.IsReady())
	assert.ErrorIs(t, env.session.Connect(context.Background()), ErrNoCredential)
}

func TestSession_RestartAfterRevokeRebindsOnce(t *testing.T) {
	env := newSessionEnv(t, "tok-1", "tok-2", "tok-3")
	env.connectAndPrefetch(t)
	require.NoError(t, env.session.Revoke())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, env.session.Start(ctx))
	require.Equal(t, 2, env.dialer.Count())

	second := env.dialer.Last()
	assert.Equal(t, "tok-2", second.Opts.Password)

	require.NoError(t, env.supplier.Refresh(context.Background()))
	assert.Equal(t, []string{"tok-3"}, second.Passwords())
	assert.Zero(t, second.Closes())
}

type connectorStub struct {
	connects, disconnects int
	err                   error
}

func (c *connectorStub) Connect(context.Context) error { c.connects++; return c.err }
func (c *connectorStub) Disconnect() error             { c.disconnects++; return nil }

type reconcilerStub struct {
	mu       sync.Mutex
	triggers []string
}

func (r *reconcilerStub) Reconcile(_ context.Context, trigger string) error {
	r.mu.Lock()
	r.triggers = append(r.triggers, trigger)
	r.mu.Unlock()
	return nil
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	conn := &connectorStub{}
	rec := &reconcilerStub{}
	lc := NewLifecycle(conn, rec, logger.Discard())

	require.NoError(t, lc.Foreground(ctx))
	assert.Zero(t, conn.connects, "foreground without background is a no-op")

	lc.OnConnected(ctx, false)
	lc.OnConnected(ctx, true)
	assert.Equal(t, []string{TriggerReconnect}, rec.triggers)

	require.NoError(t, lc.Background(ctx))
	require.NoError(t, lc.Background(ctx))
	assert.Equal(t, 1, conn.disconnects)

	require.NoError(t, lc.Foreground(ctx))
	assert.Equal(t, 1, conn.connects)
	lc.OnConnected(ctx, true)
	assert.Equal(t, []string{TriggerReconnect, TriggerForeground}, rec.triggers)
}

func TestLifecycle_FailedReconnectClearsSuppression(t *testing.T) {
	ctx := context.Background()
	conn := &connectorStub{err: errors.New("no network")}
	rec := &reconcilerStub{}
	lc := NewLifecycle(conn, rec, logger.Discard())

	require.NoError(t, lc.Background(ctx))
	require.Error(t, lc.Foreground(ctx))

	lc.OnConnected(ctx, true)
	assert.Equal(t, []string{TriggerForeground, TriggerReconnect}, rec.triggers)
}
