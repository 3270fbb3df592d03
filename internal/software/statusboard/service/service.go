package service

import (
	"context"
	"time"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/general/uistate"
	"ride-hail-realtime/internal/ports"
)

// FlagStore is the UI-state view the board reads and dismisses.
type FlagStore interface {
	Snapshots() []uistate.Snapshot
	Dismiss(ctx context.Context, name uistate.Name) error
}

// KeyLister lists the cache entries currently held.
type KeyLister interface {
	Keys() []ports.QueryKey
}

// Sources are the live components the board reports on.
type Sources struct {
	Identity        string
	State           func() connection.State
	QueueDepth      func() int
	CredentialReady func() bool
	Flags           FlagStore
	Cache           KeyLister
}

// Overview is the agent's status at one instant.
type Overview struct {
	Timestamp       time.Time          `json:"timestamp"`
	Identity        string             `json:"identity"`
	State           string             `json:"state"`
	Indicator       string             `json:"indicator"`
	QueueDepth      int                `json:"queue_depth"`
	CredentialReady bool               `json:"credential_ready"`
	Flags           []uistate.Snapshot `json:"flags"`
	CachedKeys      []ports.QueryKey   `json:"cached_keys"`
}

// StatusService answers the status board's questions.
type StatusService struct {
	src Sources
	now func() time.Time
}

func NewStatusService(src Sources) *StatusService {
	return &StatusService{src: src, now: time.Now}
}

// State returns the current connection state.
func (service *StatusService) State() connection.State {
	if service.src.State == nil {
		return connection.StateDisconnected
	}
	return service.src.State()
}

// Ready reports whether the agent holds a credential and a live connection.
func (service *StatusService) Ready() bool {
	return service.credentialReady() && service.State() == connection.StateConnected
}

func (service *StatusService) credentialReady() bool {
	return service.src.CredentialReady != nil && service.src.CredentialReady()
}

// Overview collects every source into one snapshot.
func (service *StatusService) Overview(_ context.Context) Overview {
	state := service.State()
	res := Overview{
		Timestamp:       service.now().UTC(),
		Identity:        service.src.Identity,
		State:           state.String(),
		Indicator:       state.Indicator(),
		CredentialReady: service.credentialReady(),
	}
	if service.src.QueueDepth != nil {
		res.QueueDepth = service.src.QueueDepth()
	}
	if service.src.Flags != nil {
		res.Flags = service.src.Flags.Snapshots()
	}
	if service.src.Cache != nil {
		res.CachedKeys = service.src.Cache.Keys()
	}
	return res
}

// Dismiss hides a flag on behalf of an operator.
func (service *StatusService) Dismiss(ctx context.Context, name uistate.Name) error {
	return service.src.Flags.Dismiss(ctx, name)
}
