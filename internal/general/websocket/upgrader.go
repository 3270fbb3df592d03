// Package websocket is the local UI bridge: it streams flag, notification
// and connection-state frames to a shell over WebSocket and accepts dismiss
// requests back.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"ride-hail-realtime/internal/domain/connection"
	"ride-hail-realtime/internal/general/jwt"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/general/uistate"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
	readIdleTimeout  = 60 * time.Second
	pingInterval     = 30 * time.Second
)

// Frame types sent to and accepted from the shell.
const (
	FrameHello        = "hello"
	FrameFlag         = "flag"
	FrameNotification = "notification"
	FrameConnection   = "connection"
	FrameDismiss      = "dismiss"
	FrameError        = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Frame is one bridge message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ConnectionStatus is the payload of a connection frame.
type ConnectionStatus struct {
	State     string `json:"state"`
	Indicator string `json:"indicator"`
}

// Hello is sent once after the upgrade.
type Hello struct {
	Flags      []uistate.Snapshot `json:"flags"`
	Connection ConnectionStatus   `json:"connection"`
}

// FlagStore is what the bridge reads and dismisses.
type FlagStore interface {
	Snapshots() []uistate.Snapshot
	Dismiss(ctx context.Context, name uistate.Name) error
}

// Bridge fans frames out to every attached shell.
type Bridge struct {
	logger     *logger.Logger
	flags      FlagStore
	state      func() connection.State
	writeLocks sync.Map
	clients    sync.Map // *websocket.Conn -> struct{}
}

// NewBridge creates a bridge. state may be nil.
func NewBridge(log *logger.Logger, flags FlagStore, state func() connection.State) *Bridge {
	if state == nil {
		state = func() connection.State { return connection.StateDisconnected }
	}
	return &Bridge{logger: log, flags: flags, state: state}
}

func statusOf(s connection.State) ConnectionStatus {
	return ConnectionStatus{State: s.String(), Indicator: s.Indicator()}
}

// ServeHTTP upgrades the request and serves one shell until it goes away.
func (ws *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()
	defer ws.writeLocks.Delete(conn)

	subject := ""
	if c, ok := jwt.FromContext(r.Context()); ok {
		subject = c.Subject
	}

	conn.SetReadLimit(64 << 10)
	hello := Frame{Type: FrameHello, Data: Hello{Flags: ws.flags.Snapshots(), Connection: statusOf(ws.state())}}
	if err := ws.writeJSON(conn, hello); err != nil {
		ws.logger.Error(r.Context(), "ws_hello_failed", "Failed to send hello frame", err, nil)
		return
	}

	ws.clients.Store(conn, struct{}{})
	defer ws.clients.Delete(conn)
	ws.logger.Info(r.Context(), "ws_connected", "UI shell attached", map[string]any{"subject": subject})

	_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	})

	stop := make(chan struct{})
	defer close(stop)
	go ws.pingLoop(r.Context(), conn, stop)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Warn(r.Context(), "ws_unexpected_close", "UI shell connection closed unexpectedly", map[string]any{"error": err.Error()})
			} else {
				ws.logger.Info(r.Context(), "ws_connection_closed", "UI shell detached", nil)
			}
			ws.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			return
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = ws.writeJSON(conn, Frame{Type: FrameError, Data: "bad json"})
			continue
		}

		switch msg.Type {
		case FrameDismiss:
			if err := ws.handleDismiss(r.Context(), msg.Data); err != nil {
				_ = ws.writeJSON(conn, Frame{Type: FrameError, Data: err.Error()})
			}
		default:
			_ = ws.writeJSON(conn, Frame{Type: FrameError, Data: "unknown message type"})
		}
	}
}

func (ws *Bridge) handleDismiss(ctx context.Context, data json.RawMessage) error {
	var req struct {
		Name uistate.Name `json:"name"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	if err := ws.flags.Dismiss(ctx, req.Name); err != nil {
		return err
	}
	ws.logger.Debug(ctx, "flag_dismissed", "UI shell dismissed a flag", map[string]any{"flag": req.Name})
	return nil
}

func (ws *Bridge) pingLoop(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			mu := ws.lockOf(conn)
			mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			mu.Unlock()
			if err != nil {
				// Closing unblocks the reader.
				_ = conn.Close()
				ws.logger.Warn(ctx, "ws_ping_failed", "Failed to send ping", map[string]any{"error": err.Error()})
				return
			}
		}
	}
}
