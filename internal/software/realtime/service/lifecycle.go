package service

import (
	"context"
	"sync/atomic"

	"ride-hail-realtime/internal/general/logger"
)

// Connector opens and closes the realtime connection.
type Connector interface {
	Connect(ctx context.Context) error
	Disconnect() error
}

type reconciler interface {
	Reconcile(ctx context.Context, trigger string) error
}

// Lifecycle follows the app moving between background and foreground.
// Going to the background drops the connection; coming back reconciles
// once and reconnects. The connect that follows a foreground is not
// reconciled a second time.
type Lifecycle struct {
	conn   Connector
	rec    reconciler
	logger *logger.Logger

	background atomic.Bool
	suppress   atomic.Bool
}

func NewLifecycle(conn Connector, rec reconciler, log *logger.Logger) *Lifecycle {
	return &Lifecycle{conn: conn, rec: rec, logger: log}
}

// Background tears the connection down.
func (l *Lifecycle) Background(ctx context.Context) error {
	if l.background.Swap(true) {
		return nil
	}
	l.logger.Info(ctx, "app_background", "closing realtime connection", nil)
	return l.conn.Disconnect()
}

// Foreground reconciles and reconnects. It does nothing unless the app was
// backgrounded first.
func (l *Lifecycle) Foreground(ctx context.Context) error {
	if !l.background.Swap(false) {
		return nil
	}
	l.logger.Info(ctx, "app_foreground", "reconciling and reconnecting", nil)

	l.suppress.Store(true)
	_ = l.rec.Reconcile(ctx, TriggerForeground)
	if err := l.conn.Connect(ctx); err != nil {
		l.suppress.Store(false)
		return err
	}
	return nil
}

// OnConnected runs from the connection's connected hook.
func (l *Lifecycle) OnConnected(ctx context.Context, recovered bool) {
	if l.suppress.Swap(false) {
		l.logger.Debug(ctx, "reconcile_suppressed", "already reconciled on foreground", nil)
		return
	}
	if recovered {
		_ = l.rec.Reconcile(ctx, TriggerReconnect)
	}
}

// InBackground reports whether the app is currently backgrounded.
func (l *Lifecycle) InBackground() bool {
	return l.background.Load()
}
