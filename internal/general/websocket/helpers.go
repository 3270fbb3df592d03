package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/general/uistate"
	"ride-hail-realtime/internal/ports"

	"github.com/gorilla/websocket"
)

var _ ports.Notifier = (*Bridge)(nil)

// Notify forwards a local notification to every attached shell.
func (ws *Bridge) Notify(ctx context.Context, n ports.Notification) {
	ws.logger.Info(ctx, "notification", n.Title, map[string]any{"body": n.Body})
	ws.Broadcast(Frame{Type: FrameNotification, Data: n})
}

// PublishFlag forwards a flag change.
func (ws *Bridge) PublishFlag(s uistate.Snapshot) {
	ws.Broadcast(Frame{Type: FrameFlag, Data: s})
}

// PublishConnection forwards a connection state transition.
func (ws *Bridge) PublishConnection(tr connection.Transition) {
	if !tr.Changed {
		return
	}
	ws.Broadcast(Frame{Type: FrameConnection, Data: statusOf(tr.To)})
}

// Broadcast writes f to every attached shell. A failed write closes that
// shell's socket; its reader then detaches it.
func (ws *Bridge) Broadcast(f Frame) {
	payload, err := json.Marshal(f)
	if err != nil {
		ws.logger.Error(context.Background(), "ws_frame_marshal_failed", "Failed to marshal frame", err, map[string]any{"type": f.Type})
		return
	}
	ws.clients.Range(func(k, _ any) bool {
		conn := k.(*websocket.Conn)
		if err := ws.wsWriteMessage(conn, websocket.TextMessage, payload); err != nil {
			_ = conn.Close()
		}
		return true
	})
}

// Clients reports how many shells are attached.
func (ws *Bridge) Clients() int {
	n := 0
	ws.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// wsWriteClose sends a close control frame with the given code and reason.
func (ws *Bridge) wsWriteClose(conn *websocket.Conn, code int, reason string) {
	mu := ws.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}

// wsWriteMessage sets a short write deadline and writes a message.
func (ws *Bridge) wsWriteMessage(conn *websocket.Conn, mt int, payload []byte) error {
	mu := ws.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// lockOf returns the mutex for a specific connection
func (ws *Bridge) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := ws.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := ws.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}

// writeJSON marshals v and writes a single TextMessage to the given connection.
func (ws *Bridge) writeJSON(conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.wsWriteMessage(conn, websocket.TextMessage, payload)
}
