// Package uistate holds the show/dismiss containers the event handlers write
// into. They carry data and visibility only.
package uistate

import (
	"sync"

	"ride-hail-realtime/internal/ports"
)

// Name identifies a flag on the UI bridge.
type Name string

const (
	RideCancelled  Name = "ride-cancelled"
	DriverNotFound Name = "driver-not-found"
	DriverArrived  Name = "driver-arrived"
	RideCompleted  Name = "ride-completed"
)

// Snapshot is the observable state of a flag.
type Snapshot struct {
	Name    Name `json:"name"`
	Visible bool `json:"visible"`
	Data    any  `json:"data,omitempty"`
}

// Flag is a concurrency-safe ports.Flag.
type Flag struct {
	name      Name
	onDismiss func(data any)

	mu        sync.Mutex
	visible   bool
	data      any
	observers []func(Snapshot)
}

var _ ports.Flag = (*Flag)(nil)

// Option configures a Flag.
type Option func(*Flag)

// OnDismiss runs fn with the flag's data each time a visible flag is dismissed.
func OnDismiss(fn func(data any)) Option {
	return func(f *Flag) { f.onDismiss = fn }
}

func NewFlag(name Name, opts ...Option) *Flag {
	f := &Flag{name: name}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Flag) Name() Name { return f.name }

func (f *Flag) Show(data any) {
	f.mu.Lock()
	f.visible = true
	f.data = data
	snap, obs := f.snapshotLocked(), f.observers
	f.mu.Unlock()

	for _, fn := range obs {
		fn(snap)
	}
}

// Dismiss hides the flag. Dismissing a hidden flag does nothing.
func (f *Flag) Dismiss() {
	f.mu.Lock()
	if !f.visible {
		f.mu.Unlock()
		return
	}
	data := f.data
	f.visible = false
	f.data = nil
	snap, obs := f.snapshotLocked(), f.observers
	f.mu.Unlock()

	if f.onDismiss != nil {
		f.onDismiss(data)
	}
	for _, fn := range obs {
		fn(snap)
	}
}

func (f *Flag) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

func (f *Flag) Data() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

// Snapshot returns the current state.
func (f *Flag) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Observe registers fn to be called after every visible change.
func (f *Flag) Observe(fn func(Snapshot)) {
	f.mu.Lock()
	f.observers = append(f.observers, fn)
	f.mu.Unlock()
}

func (f *Flag) snapshotLocked() Snapshot {
	return Snapshot{Name: f.name, Visible: f.visible, Data: f.data}
}
