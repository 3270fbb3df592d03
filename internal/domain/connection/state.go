package connection

import "fmt"

// State is the lifecycle state of the single live pub/sub connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateOffline
	StateError
)

var stateNames = [...]string{
	StateDisconnected: "disconnected",
	StateConnecting:   "connecting",
	StateConnected:    "connected",
	StateReconnecting: "reconnecting",
	StateOffline:      "offline",
	StateError:        "error",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// StateNames lists every state name in declaration order.
func StateNames() []string {
	return append([]string(nil), stateNames[:]...)
}

// Indicator collapses the state into what the status badge shows:
// "connected", "reconnecting" or "offline".
func (s State) Indicator() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateConnecting, StateReconnecting:
		return "reconnecting"
	default:
		return "offline"
	}
}

// Event is a lifecycle signal reported by the transport or by the owner.
type Event int

const (
	EventOpen       Event = iota // owner started dialing
	EventConnect                 // transport session established
	EventError                   // auth or transport failure
	EventDisconnect              // broker ended the session
	EventOffline                 // network loss detected by the transport
	EventReconnect               // transport started a reconnect attempt
	EventClose                   // owner tore the connection down
)

var eventNames = [...]string{
	EventOpen:       "open",
	EventConnect:    "connect",
	EventError:      "error",
	EventDisconnect: "disconnect",
	EventOffline:    "offline",
	EventReconnect:  "reconnect",
	EventClose:      "close",
}

func (e Event) String() string {
	if int(e) >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", e)
}
