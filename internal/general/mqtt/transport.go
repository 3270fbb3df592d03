// Package mqtt adapts the Eclipse Paho client to the pipeline's Transport port.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/ports"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	protocolV311   = 4
	publishTimeout = 5 * time.Second
	subscribeWait  = 10 * time.Second
	quiesceMillis  = 250
)

var ErrClosed = errors.New("mqtt: transport closed")

// Transport is a single MQTT session.
type Transport struct {
	opts ports.TransportOptions
	cb   ports.TransportCallbacks

	client   paho.Client
	password atomic.Value // string

	mu     sync.Mutex
	subs   map[string]byte
	closed bool
}

var _ ports.Transport = (*Transport)(nil)

// Dial builds an unconnected transport. It satisfies ports.TransportDialer.
func Dial(opts ports.TransportOptions, cb ports.TransportCallbacks) (ports.Transport, error) {
	if opts.BrokerURL == "" {
		return nil, errors.New("mqtt: broker url is required")
	}
	t := &Transport{opts: opts, cb: cb, subs: make(map[string]byte)}
	t.password.Store(opts.Password)
	t.client = paho.NewClient(t.clientOptions())
	return t, nil
}

// clientOptions translates the port options into Paho options. Reconnects
// use a fixed period: the retry and max intervals are both set to it.
func (t *Transport) clientOptions() *paho.ClientOptions {
	o := paho.NewClientOptions().
		AddBroker(t.opts.BrokerURL).
		SetClientID(t.opts.ClientID).
		SetCredentialsProvider(func() (string, string) {
			return t.opts.Username, t.currentPassword()
		}).
		SetProtocolVersion(protocolV311).
		SetCleanSession(t.opts.CleanSession).
		SetResumeSubs(!t.opts.CleanSession).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(t.onConnect).
		SetConnectionNotificationHandler(t.onNotification)

	if t.opts.KeepAlive > 0 {
		o.SetKeepAlive(t.opts.KeepAlive)
	}
	if t.opts.ReconnectPeriod > 0 {
		o.SetConnectRetryInterval(t.opts.ReconnectPeriod)
		o.SetMaxReconnectInterval(t.opts.ReconnectPeriod)
	}
	if t.opts.ConnectTimeout > 0 {
		o.SetConnectTimeout(t.opts.ConnectTimeout)
	}
	return o
}

func (t *Transport) currentPassword() string {
	s, _ := t.password.Load().(string)
	return s
}

// Connect starts the session in the background. Paho keeps retrying until
// Close; every attempt is reported through the lifecycle callback.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.client.Connect()
	return nil
}

// Subscribe records the topic so it survives reconnects and subscribes now
// when a session is up.
func (t *Transport) Subscribe(topic string, qos byte) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.subs[topic] = qos
	t.mu.Unlock()

	if !t.client.IsConnectionOpen() {
		return nil
	}
	return t.subscribe(topic, qos)
}

func (t *Transport) subscribe(topic string, qos byte) error {
	tok := t.client.Subscribe(topic, qos, t.onMessage)
	if !tok.WaitTimeout(subscribeWait) {
		return fmt.Errorf("mqtt: subscribe %q: timed out", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: subscribe %q: %w", topic, err)
	}
	return nil
}

// Publish sends payload without retain.
func (t *Transport) Publish(topic string, qos byte, payload []byte) error {
	if !t.client.IsConnectionOpen() {
		return fmt.Errorf("mqtt: publish %q: not connected", topic)
	}
	tok := t.client.Publish(topic, qos, false, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish %q: timed out", topic)
	}
	return tok.Error()
}

// SetPassword swaps the credential read by the credentials provider on every
// (re)connect. The live session keeps running.
func (t *Transport) SetPassword(password string) error {
	t.password.Store(password)
	return nil
}

// Close disconnects once; later calls are no-ops.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.client.Disconnect(quiesceMillis)
	return nil
}

func (t *Transport) onMessage(_ paho.Client, m paho.Message) {
	if t.cb.OnMessage != nil {
		t.cb.OnMessage(m.Topic(), m.Payload())
	}
}

func (t *Transport) onConnect(_ paho.Client) {
	if t.opts.ResubscribeOnReconnect || t.opts.CleanSession {
		t.mu.Lock()
		subs := make(map[string]byte, len(t.subs))
		for k, v := range t.subs {
			subs[k] = v
		}
		t.mu.Unlock()

		for topic, qos := range subs {
			if err := t.subscribe(topic, qos); err != nil {
				t.reportError(err)
			}
		}
	}
	t.lifecycle(connection.EventConnect, nil)
}

func (t *Transport) onNotification(_ paho.Client, n paho.ConnectionNotification) {
	if ev, err, ok := eventOf(n); ok {
		t.lifecycle(ev, err)
	}
}

// eventOf maps Paho connection notifications to lifecycle events. Connected
// is reported by onConnect after resubscription instead.
func eventOf(n paho.ConnectionNotification) (connection.Event, error, bool) {
	switch v := n.(type) {
	case paho.ConnectionNotificationConnecting:
		if v.IsReconnect || v.Attempt > 0 {
			return connection.EventReconnect, nil, true
		}
	case paho.ConnectionNotificationFailed:
		return connection.EventError, v.Reason, true
	case paho.ConnectionNotificationLost:
		return connection.EventOffline, v.Reason, true
	}
	return 0, nil, false
}

func (t *Transport) lifecycle(ev connection.Event, err error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed || t.cb.OnLifecycle == nil {
		return
	}
	t.cb.OnLifecycle(ev, err)
}

func (t *Transport) reportError(err error) {
	if t.cb.OnError != nil {
		t.cb.OnError(err)
	}
}
