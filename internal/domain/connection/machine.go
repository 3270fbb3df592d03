package connection

// Transition is the outcome of applying one event.
type Transition struct {
	Event     Event
	From      State
	To        State
	Changed   bool
	Recovered bool // a previously connected session is connected again
}

// Machine tracks the state of one connection object. It is not safe for
// concurrent use; the owner serializes calls.
type Machine struct {
	state         State
	everConnected bool
	closed        bool
}

// NewMachine returns a machine in the Disconnected state.
func NewMachine() *Machine {
	return &Machine{state: StateDisconnected}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Closed reports whether EventClose has been applied.
func (m *Machine) Closed() bool {
	return m.closed
}

// Apply feeds one event into the machine. Events arriving after close are
// ignored. A transition into Connected counts as a recovery only when the
// session had been connected before and the machine was not Connecting.
func (m *Machine) Apply(ev Event) Transition {
	tr := Transition{Event: ev, From: m.state, To: m.state}
	if m.closed {
		return tr
	}

	switch ev {
	case EventOpen:
		if m.state == StateDisconnected {
			tr.To = StateConnecting
		}

	case EventConnect:
		if m.state != StateConnected {
			tr.To = StateConnected
			tr.Recovered = m.everConnected && m.state != StateConnecting
			m.everConnected = true
		}

	case EventError:
		tr.To = StateError

	case EventDisconnect:
		tr.To = StateDisconnected

	case EventOffline:
		tr.To = StateOffline

	case EventReconnect:
		tr.To = StateReconnecting

	case EventClose:
		tr.To = StateDisconnected
		m.closed = true
	}

	tr.Changed = tr.To != tr.From
	m.state = tr.To
	return tr
}
