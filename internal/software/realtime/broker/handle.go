package broker

import (
	"context"
	"sync"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/general/metrics"
	"ride-hail-realtime/internal/ports"
)

// Hooks observe one connection. They are called on transport goroutines and
// must return quickly.
type Hooks struct {
	OnState     func(tr connection.Transition)
	OnConnected func(recovered bool)
	OnError     func(err error)
}

// Handle is one live connection object.
type Handle struct {
	identity  string
	transport ports.Transport
	hooks     Hooks
	logger    *logger.Logger

	mu  sync.Mutex
	fsm *connection.Machine
}

func (h *Handle) Identity() string { return h.identity }

// State is the connection's current FSM state.
func (h *Handle) State() connection.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fsm.State()
}

func (h *Handle) IsConnected() bool {
	return h.State() == connection.StateConnected
}

// Subscribe asks for topic at QoS 1 without waiting. A rejected
// subscription is reported to the error hook.
func (h *Handle) Subscribe(topic string) {
	go func() {
		if err := h.transport.Subscribe(topic, contracts.QoSAtLeastOnce); err != nil {
			h.logger.Error(context.Background(), "subscribe_failed", "Subscription failed", err, map[string]any{
				"topic": topic,
			})
			h.emitError(err)
		}
	}()
}

// Publish sends payload on topic.
func (h *Handle) Publish(topic string, qos byte, payload []byte) error {
	return h.transport.Publish(topic, qos, payload)
}

// Rebind replaces the password of the live session in place.
func (h *Handle) Rebind(password string) error {
	return h.transport.SetPassword(password)
}

// Close tears the connection down. Calling it again does nothing.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.fsm.Closed() {
		h.mu.Unlock()
		return nil
	}
	tr := h.fsm.Apply(connection.EventClose)
	h.mu.Unlock()

	err := h.transport.Close()
	h.emit(tr)
	return err
}

// apply feeds a transport lifecycle event into the FSM and fires hooks.
func (h *Handle) apply(ev connection.Event, cause error) {
	h.mu.Lock()
	tr := h.fsm.Apply(ev)
	h.mu.Unlock()

	if ev == connection.EventError && cause != nil && !h.closed() {
		h.logger.Warn(context.Background(), "transport_error", "Transport reported an error", map[string]any{
			"error": cause.Error(),
			"state": tr.To.String(),
		})
		h.emitError(cause)
	}
	h.emit(tr)
}

func (h *Handle) closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fsm.Closed()
}

func (h *Handle) emit(tr connection.Transition) {
	if !tr.Changed {
		return
	}
	metrics.SetConnectionState(tr.To.String(), connection.StateNames())
	h.logger.Info(context.Background(), "connection_state", "Connection state changed", map[string]any{
		"identity": h.identity,
		"event":    tr.Event.String(),
		"from":     tr.From.String(),
		"to":       tr.To.String(),
	})

	if h.hooks.OnState != nil {
		h.hooks.OnState(tr)
	}
	if tr.To == connection.StateConnected {
		if tr.Recovered {
			metrics.Reconnects.Inc()
		}
		if h.hooks.OnConnected != nil {
			h.hooks.OnConnected(tr.Recovered)
		}
	}
}

func (h *Handle) emitError(err error) {
	if h.hooks.OnError != nil {
		h.hooks.OnError(err)
	}
}
