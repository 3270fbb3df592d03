package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/software/realtime/broker"
	"ride-hail-realtime/internal/software/realtime/credential"
	"ride-hail-realtime/internal/software/realtime/dispatch"
)

var ErrNoCredential = errors.New("no realtime credential yet")

// SessionDeps wires a signed-in session.
type SessionDeps struct {
	Identity   string
	Supplier   *credential.Supplier
	Manager    *broker.Manager
	Queue      *dispatch.Queue
	Reconciler *Reconciler
	Logger     *logger.Logger
}

// Session binds the credential supplier, the connection and the dispatch
// queue for one signed-in identity.
type Session struct {
	identity   string
	supplier   *credential.Supplier
	manager    *broker.Manager
	queue      *dispatch.Queue
	reconciler *Reconciler
	lifecycle  *Lifecycle
	logger     *logger.Logger

	baseMu     sync.RWMutex
	base       context.Context
	prefetched atomic.Bool
	wg         sync.WaitGroup

	obsMu     sync.Mutex
	observers []func(connection.Transition)
}

var _ Connector = (*Session)(nil)

func NewSession(d SessionDeps) *Session {
	s := &Session{
		identity:   d.Identity,
		supplier:   d.Supplier,
		manager:    d.Manager,
		queue:      d.Queue,
		reconciler: d.Reconciler,
		logger:     d.Logger,
		base:       context.Background(),
	}
	s.lifecycle = NewLifecycle(s, d.Reconciler, d.Logger)
	s.supplier.OnRefresh(s.rebind)
	return s
}

func (s *Session) baseContext() context.Context {
	s.baseMu.RLock()
	defer s.baseMu.RUnlock()
	return s.base
}

// rebind pushes a refreshed credential into the live connection.
func (s *Session) rebind(c credential.Credential) {
	if err := s.manager.Rebind(c.Token); err != nil {
		s.logger.Warn(s.baseContext(), "credential_rebind_failed", "could not update the live connection's credential", map[string]any{"error": err.Error()})
	}
}

// Lifecycle returns the background/foreground controller of the session.
func (s *Session) Lifecycle() *Lifecycle { return s.lifecycle }

// OnStateChange registers fn for every connection state transition.
func (s *Session) OnStateChange(fn func(connection.Transition)) {
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

// Start begins credential refresh and the dispatch worker, waits for the
// first credential and connects. Refreshed credentials are pushed into the
// live connection without reopening it.
func (s *Session) Start(ctx context.Context) error {
	s.baseMu.Lock()
	s.base = ctx
	s.baseMu.Unlock()
	s.supplier.Start(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// a restarted session keeps the worker of its first Start
		if err := s.queue.Run(ctx); err != nil && !errors.Is(err, dispatch.ErrAlreadyRunning) {
			s.logger.Error(ctx, "dispatch_run_failed", "dispatch worker stopped", err, nil)
		}
	}()

	select {
	case <-s.supplier.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Connect(ctx)
}

// Connect opens a connection with the current credential and subscribes to
// the identity's inbound topic.
func (s *Session) Connect(ctx context.Context) error {
	cred, ok := s.supplier.Current()
	if !ok {
		return ErrNoCredential
	}

	h, err := s.manager.Open(ctx, s.identity, cred.Token, s.queue.Enqueue, s.hooks())
	if err != nil {
		return fmt.Errorf("open realtime connection: %w", err)
	}
	if h == nil {
		return nil
	}
	h.Subscribe(contracts.InboundTopic(s.identity))
	return nil
}

// Disconnect closes the live connection. Queued envelopes still drain.
func (s *Session) Disconnect() error {
	return s.manager.Close()
}

// Revoke ends the signed-in session: the credential is dropped and the
// connection closed. A later Start begins a fresh session.
func (s *Session) Revoke() error {
	s.supplier.Revoke()
	s.prefetched.Store(false)
	return s.manager.Close()
}

// Close stops refresh, closes the connection and waits for hook work. The
// dispatch worker exits with the context given to Start.
func (s *Session) Close() error {
	err := s.manager.Close()
	s.supplier.Stop()
	s.wg.Wait()
	return err
}

func (s *Session) hooks() broker.Hooks {
	return broker.Hooks{
		OnState: func(tr connection.Transition) {
			s.obsMu.Lock()
			obs := append([]func(connection.Transition){}, s.observers...)
			s.obsMu.Unlock()
			for _, fn := range obs {
				fn(tr)
			}
		},
		OnConnected: func(recovered bool) {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.onConnected(recovered)
			}()
		},
		OnError: func(err error) {
			s.logger.Warn(s.baseContext(), "realtime_error", "realtime connection reported an error", map[string]any{"error": err.Error()})
		},
	}
}

func (s *Session) onConnected(recovered bool) {
	ctx := context.WithoutCancel(s.baseContext())
	if !recovered && s.prefetched.CompareAndSwap(false, true) {
		if err := s.reconciler.PrefetchSession(ctx); err != nil {
			s.logger.Warn(ctx, "session_prefetch_failed", "some session data could not be prefetched", map[string]any{"error": err.Error()})
		}
	}
	s.lifecycle.OnConnected(ctx, recovered)
}
