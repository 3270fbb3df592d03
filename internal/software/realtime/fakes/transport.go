// Package fakes provides in-memory collaborators for pipeline tests.
package fakes

import (
	"context"
	"sync"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/ports"
)

// Published is one recorded Publish call.
type Published struct {
	Topic   string
	QoS     byte
	Payload []byte
}

// Transport records every call and lets tests drive lifecycle events.
type Transport struct {
	Opts ports.TransportOptions
	cb   ports.TransportCallbacks

	mu           sync.Mutex
	connects     int
	closes       int
	subscribed   []string
	published    []Published
	passwords    []string
	SubscribeErr error
	PublishErr   error
}

var _ ports.Transport = (*Transport)(nil)

func (t *Transport) Connect(context.Context) error {
	t.mu.Lock()
	t.connects++
	t.mu.Unlock()
	return nil
}

func (t *Transport) Subscribe(topic string, _ byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.SubscribeErr != nil {
		return t.SubscribeErr
	}
	t.subscribed = append(t.subscribed, topic)
	return nil
}

func (t *Transport) Publish(topic string, qos byte, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.PublishErr != nil {
		return t.PublishErr
	}
	t.published = append(t.published, Published{Topic: topic, QoS: qos, Payload: append([]byte(nil), payload...)})
	return nil
}

func (t *Transport) SetPassword(password string) error {
	t.mu.Lock()
	t.passwords = append(t.passwords, password)
	t.mu.Unlock()
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	t.closes++
	t.mu.Unlock()
	return nil
}

// Emit reports a lifecycle event as the real transport would.
func (t *Transport) Emit(ev connection.Event, err error) {
	if t.cb.OnLifecycle != nil {
		t.cb.OnLifecycle(ev, err)
	}
}

// Deliver pushes an inbound message.
func (t *Transport) Deliver(topic string, payload []byte) {
	if t.cb.OnMessage != nil {
		t.cb.OnMessage(topic, payload)
	}
}

// Fail reports a non-lifecycle error.
func (t *Transport) Fail(err error) {
	if t.cb.OnError != nil {
		t.cb.OnError(err)
	}
}

func (t *Transport) Connects() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects
}

func (t *Transport) Closes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closes
}

func (t *Transport) Subscribed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.subscribed...)
}

func (t *Transport) Published() []Published {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Published(nil), t.published...)
}

func (t *Transport) Passwords() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.passwords...)
}

// Dialer hands out fake transports and remembers them.
type Dialer struct {
	mu         sync.Mutex
	transports []*Transport
	Err        error
}

// Dial satisfies ports.TransportDialer.
func (d *Dialer) Dial(opts ports.TransportOptions, cb ports.TransportCallbacks) (ports.Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	t := &Transport{Opts: opts, cb: cb}
	d.transports = append(d.transports, t)
	return t, nil
}

// Count is the number of transports dialed so far.
func (d *Dialer) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

// Last returns the most recently dialed transport.
func (d *Dialer) Last() *Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}
