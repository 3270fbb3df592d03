package ports

import (
	"context"
	"time"

	"ride-hail-realtime/internal/domain/connection"
)

// TransportOptions are the fixed connection parameters of one pub/sub session.
type TransportOptions struct {
	BrokerURL              string
	ClientID               string
	Username               string
	Password               string
	KeepAlive              time.Duration
	ReconnectPeriod        time.Duration
	ConnectTimeout         time.Duration
	CleanSession           bool
	ResubscribeOnReconnect bool
}

// TransportCallbacks receive everything a transport observes. Callbacks may
// run on transport-owned goroutines and must not block. OnError reports
// failures that do not change the connection state, such as a rejected
// resubscription.
type TransportCallbacks struct {
	OnLifecycle func(ev connection.Event, err error)
	OnMessage   func(topic string, payload []byte)
	OnError     func(err error)
}

// Transport is one live broker session. Connect starts the session and
// returns without waiting for the broker; progress is reported through
// OnLifecycle.
type Transport interface {
	Connect(ctx context.Context) error
	// Subscribe blocks until the broker confirms or rejects the subscription.
	// Subscriptions made while offline are applied on the next connect.
	Subscribe(topic string, qos byte) error
	Publish(topic string, qos byte, payload []byte) error
	// SetPassword replaces the credential used for the current and all
	// future (re)authentications without tearing the session down.
	SetPassword(password string) error
	Close() error
}

// TransportDialer builds an unconnected transport.
type TransportDialer func(opts TransportOptions, cb TransportCallbacks) (Transport, error)
