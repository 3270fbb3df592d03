// Package service holds the pipeline's stateful workflows: chat catch-up,
// reconciliation after connectivity gaps, and the session lifecycle.
package service

import (
	"context"
	"fmt"

	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/general/metrics"
	"ride-hail-realtime/internal/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Reconciliation triggers, used as metric labels.
const (
	TriggerReconnect   = "reconnect"
	TriggerForeground  = "foreground"
	TriggerSession     = "session"
	TriggerInvalidated = "invalidated"
)

// Reconciler re-fetches authoritative ride state after a gap in the event
// stream. Concurrent runs collapse into one.
type Reconciler struct {
	rides   ports.RideAPI
	catalog ports.CatalogAPI
	cache   ports.QueryCache
	chat    *ChatSync
	logger  *logger.Logger
	tracer  trace.Tracer
	group   singleflight.Group
}

func NewReconciler(rides ports.RideAPI, catalog ports.CatalogAPI, cache ports.QueryCache, chat *ChatSync, log *logger.Logger) *Reconciler {
	return &Reconciler{
		rides:   rides,
		catalog: catalog,
		cache:   cache,
		chat:    chat,
		logger:  log,
		tracer:  otel.Tracer("ride-hail-realtime/service"),
	}
}

// Reconcile refreshes the active ride and, when one exists, its navigation
// and chat. The once-per-session reference data is left alone.
func (r *Reconciler) Reconcile(ctx context.Context, trigger string) error {
	_, err, shared := r.group.Do("active-ride", func() (any, error) {
		return nil, r.reconcile(ctx, trigger)
	})
	if shared {
		r.logger.Debug(ctx, "reconcile_shared", "joined a reconciliation already in flight", map[string]any{"trigger": trigger})
		return err
	}

	result := "ok"
	if err != nil {
		result = "failed"
		r.logger.Warn(ctx, "reconcile_failed", "reconciliation failed", map[string]any{"trigger": trigger, "error": err.Error()})
	}
	metrics.Reconciliations.WithLabelValues(trigger, result).Inc()
	return err
}

func (r *Reconciler) reconcile(ctx context.Context, trigger string) error {
	ctx, span := r.tracer.Start(ctx, "reconcile.active_ride", trace.WithAttributes(attribute.String("ridehail.trigger", trigger)))
	defer span.End()

	active, err := r.rides.ActiveRide(ctx)
	if err != nil {
		r.cache.Invalidate(ports.KeyActiveRide)
		span.RecordError(err)
		span.SetStatus(codes.Error, "active ride fetch failed")
		return fmt.Errorf("fetch active ride: %w", err)
	}
	r.cache.Set(ports.KeyActiveRide, active)
	if active == nil {
		return nil
	}

	ctx = r.logger.WithRideID(ctx, active.ID)
	span.SetAttributes(attribute.String("ridehail.ride.id", active.ID))
	r.refreshRide(ctx, active.ID)
	return nil
}

func (r *Reconciler) refreshRide(ctx context.Context, rideID string) {
	key := ports.NavigationKey(rideID)
	nav, err := r.rides.RideNavigation(ctx, rideID)
	if err != nil {
		r.cache.Invalidate(key)
		r.logger.Warn(ctx, "navigation_fetch_failed", "ride navigation refresh failed", map[string]any{"error": err.Error()})
	} else {
		r.cache.Set(key, nav)
	}

	if r.chat == nil {
		return
	}
	if err := r.chat.Sync(ctx, rideID); err != nil {
		r.logger.Warn(ctx, "chat_sync_failed", "chat catch-up failed", map[string]any{"error": err.Error()})
	}
}

// PrefetchSession loads everything a fresh session shows: the active ride
// plus the reference catalogs. Fetches run concurrently and a failure only
// invalidates its own entry.
func (r *Reconciler) PrefetchSession(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return r.Reconcile(ctx, TriggerSession) })
	if r.catalog != nil {
		g.Go(prefetch(ctx, r.cache, ports.KeyRideTypes, r.catalog.RideTypes))
		g.Go(prefetch(ctx, r.cache, ports.KeyPaymentMethods, r.catalog.PaymentMethods))
		g.Go(prefetch(ctx, r.cache, ports.KeyPlans, r.catalog.Plans))
	}
	return g.Wait()
}

func prefetch[T any](ctx context.Context, cache ports.QueryCache, key ports.QueryKey, fetch func(context.Context) (T, error)) func() error {
	return func() error {
		v, err := fetch(ctx)
		if err != nil {
			cache.Invalidate(key)
			return fmt.Errorf("prefetch %s: %w", key, err)
		}
		cache.Set(key, v)
		return nil
	}
}
