// Package credential keeps a fresh realtime connection credential while a
// user is signed in.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ride-hail-realtime/internal/general/jwt"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/general/metrics"
	"ride-hail-realtime/internal/ports"
)

// DefaultRefreshInterval is shorter than the issuer's token lifetime so a
// refreshed value always lands before the previous one expires.
const DefaultRefreshInterval = 14 * time.Minute

var ErrEmptyCredential = errors.New("credential endpoint returned an empty token")

// Credential is the bearer token used as the transport password.
type Credential struct {
	Token     string
	Subject   string    // sub claim, when the token is a JWT
	ExpiresAt time.Time // exp claim, zero when unknown
	FetchedAt time.Time
}

// Expired reports whether the credential is known to be expired at t.
func (c Credential) Expired(t time.Time) bool {
	return !c.ExpiresAt.IsZero() && !t.Before(c.ExpiresAt)
}

// Supplier refreshes the credential on a fixed timer between Start and Stop.
// A failed refresh keeps the previous value; the next tick retries.
type Supplier struct {
	api      ports.CredentialAPI
	interval time.Duration
	logger   *logger.Logger
	now      func() time.Time

	mu        sync.RWMutex
	current   Credential
	have      bool
	ready     chan struct{}
	listeners []func(Credential)

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupplier creates a stopped supplier.
func NewSupplier(api ports.CredentialAPI, interval time.Duration, log *logger.Logger) *Supplier {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Supplier{
		api:      api,
		interval: interval,
		logger:   log,
		now:      time.Now,
		ready:    make(chan struct{}),
	}
}

// OnRefresh registers fn to receive every successfully fetched credential.
func (s *Supplier) OnRefresh(fn func(Credential)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Current returns the latest credential, if one was ever fetched.
func (s *Supplier) Current() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.have
}

// IsReady reports whether a credential is available.
func (s *Supplier) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.have
}

// Ready is closed once the first credential is available. After Revoke a
// new channel is handed out.
func (s *Supplier) Ready() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start fetches immediately and then on every interval until Stop or ctx
// is done. Calling Start on a running supplier does nothing.
func (s *Supplier) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(runCtx, s.done)
}

// Stop halts the timer and waits for an in-flight refresh. The current
// credential is kept.
func (s *Supplier) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Revoke stops refreshing and forgets the credential (sign-out).
func (s *Supplier) Revoke() {
	s.Stop()

	s.mu.Lock()
	s.current = Credential{}
	if s.have {
		s.ready = make(chan struct{})
	}
	s.have = false
	s.mu.Unlock()
}

func (s *Supplier) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	_ = s.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Refresh fetches one credential. On failure the previous credential stays
// current and the error is returned for logging only.
func (s *Supplier) Refresh(ctx context.Context) error {
	token, err := s.api.ConnectionToken(ctx)
	if err == nil && strings.TrimSpace(token) == "" {
		err = ErrEmptyCredential
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.CredentialRefreshes.WithLabelValues("failed").Inc()
		s.logger.Warn(ctx, "credential_refresh_failed", "Credential refresh failed; keeping previous value", map[string]any{
			"error": err.Error(),
			"ready": s.IsReady(),
		})
		return fmt.Errorf("refresh credential: %w", err)
	}

	cred := Credential{Token: token, FetchedAt: s.now()}
	if claims, err := jwt.Inspect(token); err == nil {
		cred.Subject = claims.Subject
		cred.ExpiresAt = claims.Expiry()
	}

	s.mu.Lock()
	first := !s.have
	s.current = cred
	s.have = true
	ready := s.ready
	listeners := append([]func(Credential){}, s.listeners...)
	s.mu.Unlock()

	metrics.CredentialRefreshes.WithLabelValues("ok").Inc()
	s.logger.Debug(ctx, "credential_refreshed", "Realtime credential refreshed", map[string]any{
		"first":      first,
		"expires_at": cred.ExpiresAt,
	})

	for _, fn := range listeners {
		fn(cred)
	}
	// Waiters on Ready run after listeners have seen the first credential.
	if first {
		close(ready)
	}
	return nil
}
