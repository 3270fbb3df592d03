// Package rabbitmq implements the realtime Transport on top of a RabbitMQ
// topic exchange for deployments without an MQTT broker.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrClosed       = errors.New("rabbitmq: transport closed")
	errNotConnected = errors.New("rabbitmq: connection is not open")
)

// Transport is a resilient RabbitMQ session with auto-reconnect. Each
// identity gets an exclusive queue bound to the realtime exchange; MQTT
// style topics are mapped to routing keys.
type Transport struct {
	opts ports.TransportOptions
	cb   ports.TransportCallbacks

	exchange string
	password atomic.Value // string

	mu      sync.RWMutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	subs    map[string]byte
	started bool

	pubMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
	reconnect chan struct{}
}

var _ ports.Transport = (*Transport)(nil)

// Dial builds an unconnected transport. It satisfies ports.TransportDialer.
func Dial(opts ports.TransportOptions, cb ports.TransportCallbacks) (ports.Transport, error) {
	if opts.BrokerURL == "" {
		return nil, errors.New("rabbitmq: broker url is required")
	}
	if _, err := amqp.ParseURI(opts.BrokerURL); err != nil {
		return nil, fmt.Errorf("rabbitmq: broker url: %w", err)
	}
	if opts.ReconnectPeriod <= 0 {
		opts.ReconnectPeriod = 5 * time.Second
	}
	t := &Transport{
		opts:      opts,
		cb:        cb,
		exchange:  exchangeName,
		subs:      make(map[string]byte),
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
	}
	t.password.Store(opts.Password)
	return t, nil
}

// Connect starts the background watcher which dials immediately and then
// keeps the session alive until Close.
func (t *Transport) Connect(ctx context.Context) error {
	if t.isClosed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.mu.Unlock()

	t.signalReconnect()
	go t.watch()
	return nil
}

// Close stops the watcher and closes AMQP resources. Safe to call repeatedly.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)

		t.mu.Lock()
		if t.ch != nil {
			_ = t.ch.Close()
			t.ch = nil
		}
		if t.conn != nil {
			_ = t.conn.Close()
			t.conn = nil
		}
		t.mu.Unlock()
	})
	return nil
}

// --- internals ---

func (t *Transport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

func (t *Transport) signalReconnect() {
	select {
	case t.reconnect <- struct{}{}:
	default:
	}
}

func (t *Transport) currentPassword() string {
	s, _ := t.password.Load().(string)
	return s
}

func (t *Transport) dialConfig() amqp.Config {
	cfg := amqp.Config{
		SASL:      []amqp.Authentication{&amqp.PlainAuth{Username: t.opts.Username, Password: t.currentPassword()}},
		Heartbeat: t.opts.KeepAlive,
		Locale:    "en_US",
		Properties: amqp.Table{
			"connection_name": t.opts.ClientID,
		},
	}
	if t.opts.ConnectTimeout > 0 {
		cfg.Dial = amqp.DefaultDial(t.opts.ConnectTimeout)
	}
	return cfg
}

// connectOnce dials, declares the client's queue, rebinds every tracked
// topic and starts consuming.
func (t *Transport) connectOnce() (err error) {
	conn, err := amqp.DialConfig(t.opts.BrokerURL, t.dialConfig())
	if err != nil {
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = conn.Close()
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}

	queue := queueName(t.opts.ClientID)
	if err = declareTopology(ch, t.exchange, queue); err != nil {
		return fmt.Errorf("rabbitmq: failed to declare topology: %w", err)
	}

	t.mu.Lock()
	subs := make([]string, 0, len(t.subs))
	for topic := range t.subs {
		subs = append(subs, topic)
	}
	t.mu.Unlock()
	for _, topic := range subs {
		if err = bindTopic(ch, t.exchange, queue, topic); err != nil {
			return err
		}
	}

	deliveries, err := ch.Consume(queue, t.opts.ClientID, false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume(%s): %w", queue, err)
	}

	t.mu.Lock()
	if t.isClosed() {
		t.mu.Unlock()
		return ErrClosed
	}
	t.conn = conn
	t.ch = ch
	t.mu.Unlock()

	go t.consume(deliveries)

	// either the connection or the channel closing triggers a reconnect
	go func(conn *amqp.Connection, ch *amqp.Channel) {
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
		var cause *amqp.Error
		select {
		case <-t.closed:
			return
		case cause = <-connClosed:
		case cause = <-chClosed:
		}

		var reason error
		if cause != nil {
			reason = cause
		}
		t.lifecycle(connection.EventOffline, reason)
		t.signalReconnect()
	}(conn, ch)

	return nil
}

// watch dials on every reconnect signal and retries on a fixed period
// until success or Close.
func (t *Transport) watch() {
	first := true
	for {
		select {
		case <-t.closed:
			return
		case <-t.reconnect:
		}

		for {
			if t.isClosed() {
				return
			}
			if !first {
				t.lifecycle(connection.EventReconnect, nil)
			}
			first = false

			err := t.connectOnce()
			if err == nil {
				t.lifecycle(connection.EventConnect, nil)
				break
			}
			if errors.Is(err, ErrClosed) {
				return
			}
			t.lifecycle(connection.EventError, err)

			select {
			case <-t.closed:
				return
			case <-time.After(t.opts.ReconnectPeriod):
			}
		}
	}
}

func (t *Transport) lifecycle(ev connection.Event, err error) {
	if t.isClosed() || t.cb.OnLifecycle == nil {
		return
	}
	t.cb.OnLifecycle(ev, err)
}

func (t *Transport) reportError(err error) {
	if t.cb.OnError != nil {
		t.cb.OnError(err)
	}
}
