// Package broker owns the single live pub/sub connection of the client.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/ports"

	"github.com/google/uuid"
)

// Fixed session parameters.
const (
	KeepAlive       = 30 * time.Second
	ReconnectPeriod = 5 * time.Second
	ConnectTimeout  = 30 * time.Second
)

var ErrNotConnected = errors.New("broker: no live connection")

// Manager guarantees at most one live Handle: opening a new one closes the
// previous one first.
type Manager struct {
	dial      ports.TransportDialer
	brokerURL string
	username  string
	logger    *logger.Logger

	openMu  sync.Mutex // serializes Open and Close
	mu      sync.Mutex
	current *Handle
}

// NewManager creates a manager dialing brokerURL. An empty username means
// the identity is used as the username.
func NewManager(dial ports.TransportDialer, brokerURL, username string, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{dial: dial, brokerURL: brokerURL, username: username, logger: log}
}

// Options returns the transport options used for identity and password.
func (m *Manager) Options(identity, password string) ports.TransportOptions {
	username := m.username
	if username == "" {
		username = identity
	}
	return ports.TransportOptions{
		BrokerURL:              m.brokerURL,
		ClientID:               identity + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Username:               username,
		Password:               password,
		KeepAlive:              KeepAlive,
		ReconnectPeriod:        ReconnectPeriod,
		ConnectTimeout:         ConnectTimeout,
		CleanSession:           true,
		ResubscribeOnReconnect: true,
	}
}

// Open replaces the live connection with a new one for identity. An empty
// identity is a no-op returning a nil handle. onEnvelope receives every
// inbound payload and must not block.
func (m *Manager) Open(ctx context.Context, identity, password string, onEnvelope func([]byte), hooks Hooks) (*Handle, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, nil
	}

	m.openMu.Lock()
	defer m.openMu.Unlock()

	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	h := &Handle{
		identity: identity,
		hooks:    hooks,
		logger:   m.logger,
		fsm:      connection.NewMachine(),
	}

	transport, err := m.dial(m.Options(identity, password), ports.TransportCallbacks{
		OnLifecycle: h.apply,
		OnMessage: func(_ string, payload []byte) {
			if onEnvelope != nil {
				onEnvelope(payload)
			}
		},
		OnError: h.emitError,
	})
	if err != nil {
		return nil, fmt.Errorf("broker: dial: %w", err)
	}
	h.transport = transport

	m.mu.Lock()
	m.current = h
	m.mu.Unlock()

	h.apply(connection.EventOpen, nil)
	if err := transport.Connect(ctx); err != nil {
		m.mu.Lock()
		if m.current == h {
			m.current = nil
		}
		m.mu.Unlock()
		_ = h.Close()
		return nil, fmt.Errorf("broker: connect: %w", err)
	}

	return h, nil
}

// Current returns the live handle, or nil.
func (m *Manager) Current() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Rebind pushes a new password into the live connection without a
// close/open pair. Without a connection it does nothing.
func (m *Manager) Rebind(password string) error {
	h := m.Current()
	if h == nil {
		return nil
	}
	return h.Rebind(password)
}

// Close tears down the live connection, if any.
func (m *Manager) Close() error {
	m.openMu.Lock()
	defer m.openMu.Unlock()

	m.mu.Lock()
	h := m.current
	m.current = nil
	m.mu.Unlock()

	if h == nil {
		return nil
	}
	return h.Close()
}

// State is the live connection's state, Disconnected when there is none.
func (m *Manager) State() connection.State {
	if h := m.Current(); h != nil {
		return h.State()
	}
	return connection.StateDisconnected
}

func (m *Manager) IsConnected() bool {
	return m.State() == connection.StateConnected
}

// Identity of the live connection, empty when there is none.
func (m *Manager) Identity() string {
	if h := m.Current(); h != nil {
		return h.Identity()
	}
	return ""
}

// Publish sends on the live connection.
func (m *Manager) Publish(topic string, qos byte, payload []byte) error {
	h := m.Current()
	if h == nil {
		return ErrNotConnected
	}
	return h.Publish(topic, qos, payload)
}
