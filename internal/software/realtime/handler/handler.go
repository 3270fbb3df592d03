// Package handler applies inbound realtime events to the client's local
// state: cache invalidations, UI flags and local notifications.
package handler

import (
	"context"

	"ride-hail-realtime/internal/domain/user"
	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/general/metrics"
	"ride-hail-realtime/internal/ports"
	"ride-hail-realtime/internal/software/realtime/dispatch"
)

// ChatSyncer catches a ride's cached chat up with the server.
type ChatSyncer interface {
	Sync(ctx context.Context, rideID string) error
}

// Deps are the state containers and collaborators the handlers write into.
type Deps struct {
	Role     user.Role
	Cache    ports.QueryCache
	Flags    ports.Flags
	Notifier ports.Notifier
	Chat     ChatSyncer
	Logger   *logger.Logger
}

// Set routes each decoded payload to the handler for its type.
type Set struct {
	role     user.Role
	cache    ports.QueryCache
	flags    ports.Flags
	notifier ports.Notifier
	chat     ChatSyncer
	logger   *logger.Logger
}

var _ dispatch.Handler = (*Set)(nil)

func NewSet(d Deps) *Set {
	return &Set{
		role:     d.Role,
		cache:    d.Cache,
		flags:    d.Flags,
		notifier: d.Notifier,
		chat:     d.Chat,
		logger:   d.Logger,
	}
}

// Handle runs exactly one handler for p.
func (s *Set) Handle(ctx context.Context, env *contracts.Envelope, p contracts.Payload) error {
	switch v := p.(type) {
	case *contracts.RideRequest:
		return s.rideRequest(ctx, v)
	case *contracts.RideAccepted:
		return s.rideAccepted(ctx, v)
	case *contracts.RideCancelled:
		return s.rideCancelled(ctx, v)
	case *contracts.RideOfferExpired:
		return s.rideOfferExpired(ctx, v)
	case *contracts.DriverNotFound:
		return s.driverNotFound(ctx, v)
	case *contracts.DriverLocation:
		return s.driverLocation(ctx, v)
	case *contracts.DriverArrived:
		return s.driverArrived(ctx, v)
	case *contracts.RideStarted:
		return s.rideStarted(ctx, v)
	case *contracts.RideCompleted:
		return s.rideCompleted(ctx, v)
	case *contracts.ChatMessage:
		return s.chatMessage(ctx, v)
	case *contracts.Ack:
		s.logger.Debug(ctx, "ack_received", "server acknowledged a client message", map[string]any{"correlates_with": v.MessageID})
		return nil
	default:
		metrics.UnhandledPayloads.WithLabelValues(string(env.Type)).Inc()
		s.logger.Warn(ctx, "handler_missing", "no handler for message type", map[string]any{"type": env.Type})
		return nil
	}
}

func (s *Set) notify(ctx context.Context, title, body string, data map[string]string) {
	s.notifier.Notify(ctx, ports.Notification{Title: title, Body: body, Data: data})
}

func notificationData(t contracts.MessageType, rideID string) map[string]string {
	return map[string]string{"type": string(t), "rideId": rideID}
}
