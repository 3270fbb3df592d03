package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func apply(m *Machine, events ...Event) []Transition {
	out := make([]Transition, 0, len(events))
	for _, ev := range events {
		out = append(out, m.Apply(ev))
	}
	return out
}

func recoveries(trs []Transition) int {
	n := 0
	for _, tr := range trs {
		if tr.Recovered {
			n++
		}
	}
	return n
}

func TestMachine_FirstConnectIsNotRecovery(t *testing.T) {
	m := NewMachine()
	trs := apply(m, EventOpen, EventConnect)

	assert.Equal(t, StateConnected, m.State())
	assert.Zero(t, recoveries(trs))
}

func TestMachine_RecoveryFiresOncePerReconnect(t *testing.T) {
	m := NewMachine()
	trs := apply(m,
		EventOpen, EventConnect,
		EventOffline, EventReconnect, EventError, EventReconnect, EventConnect,
		EventConnect, // duplicate connect callback from the transport
	)

	assert.Equal(t, 1, recoveries(trs))
	assert.True(t, trs[6].Recovered)
	assert.Equal(t, StateReconnecting, trs[6].From)
	assert.False(t, trs[7].Changed)
}

func TestMachine_InitialRetriesAreNotRecovery(t *testing.T) {
	m := NewMachine()
	trs := apply(m, EventOpen, EventError, EventReconnect, EventConnect)

	assert.Equal(t, StateConnected, m.State())
	assert.Zero(t, recoveries(trs))
}

func TestMachine_DisconnectThenReconnect(t *testing.T) {
	m := NewMachine()
	trs := apply(m, EventOpen, EventConnect, EventDisconnect, EventReconnect, EventConnect)

	assert.Equal(t, 1, recoveries(trs))
}

func TestMachine_CloseIsTerminal(t *testing.T) {
	m := NewMachine()
	apply(m, EventOpen, EventConnect, EventClose)
	assert.True(t, m.Closed())
	assert.Equal(t, StateDisconnected, m.State())

	tr := m.Apply(EventConnect)
	assert.False(t, tr.Changed)
	assert.Equal(t, StateDisconnected, m.State())
}

func TestState_Indicator(t *testing.T) {
	assert.Equal(t, "connected", StateConnected.Indicator())
	assert.Equal(t, "reconnecting", StateReconnecting.Indicator())
	assert.Equal(t, "reconnecting", StateConnecting.Indicator())
	assert.Equal(t, "offline", StateOffline.Indicator())
	assert.Equal(t, "offline", StateError.Indicator())
	assert.Equal(t, "offline", StateDisconnected.Indicator())
	assert.Equal(t, "State(42)", State(42).String())
}
