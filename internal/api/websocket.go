package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/data-explorer/client/internal/dashboard"
	"github.com/data-explorer/client/internal/models"
	"github.com/data-explorer/client/internal/state"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types
const (
	// Client -> Server messages
	MsgTypePing  = "ping"
	MsgTypeReset = "reset"

	// Server -> Client messages
	MsgTypeView  = "view"
	MsgTypePong  = "pong"
	MsgTypeError = "error"
)

const writeWait = 10 * time.Second

// WSMessage is sent in both directions. Clients only fill Type.
type WSMessage struct {
	Type      string       `json:"type"`
	Phase     models.Phase `json:"phase,omitempty"`
	UploadID  string       `json:"uploadId,omitempty"`
	Notice    string       `json:"notice,omitempty"`
	HTML      string       `json:"html,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// WebSocketHandler pushes dashboard views to connected pages
type WebSocketHandler struct {
	state     *state.Store
	dashboard *dashboard.Dashboard
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. Pages served from
// the same host are always accepted; other origins must be listed in
// allowOrigins, where "*" accepts any.
func NewWebSocketHandler(st *state.Store, d *dashboard.Dashboard, allowOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		state:     st,
		dashboard: d,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin(allowOrigins),
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

func checkOrigin(allowOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowOrigins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		slog.Warn("websocket origin rejected", "origin", origin, "host", r.Host)
		return false
	}
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) send(msg WSMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg.Timestamp = time.Now().UnixMilli()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(msg); err != nil {
		slog.Debug("websocket write failed", "error", err)
	}
}

// HandleWebSocket upgrades the connection and streams a view message for the
// current state and for every change after it.
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	conn := &wsConn{ws: ws}
	slog.Debug("websocket client connected", "remote", c.RealIP())

	ctx, cancel := context.WithCancel(c.Request().Context())
	watching := make(chan struct{})
	go func() {
		defer close(watching)
		wsh.dashboard.Watch(ctx, func(v dashboard.View, notice string) {
			wsh.pushView(conn, v, notice)
		})
	}()

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket connection error", "error", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			conn.send(WSMessage{Type: MsgTypePong})
		case MsgTypeReset:
			wsh.state.Reset()
		default:
			conn.send(WSMessage{Type: MsgTypeError, Message: "Unknown message type: " + msg.Type})
		}
	}

	cancel()
	<-watching
	slog.Debug("websocket client disconnected", "remote", c.RealIP())
	return nil
}

func (wsh *WebSocketHandler) pushView(conn *wsConn, v dashboard.View, notice string) {
	var buf bytes.Buffer
	if err := wsh.dashboard.Fragment(&buf, v); err != nil {
		slog.Error("failed to render view", "phase", v.Phase, "error", err)
		conn.send(WSMessage{Type: MsgTypeError, Message: "failed to render view"})
		return
	}
	conn.send(WSMessage{
		Type:     MsgTypeView,
		Phase:    v.Phase,
		UploadID: v.UploadID,
		Notice:   notice,
		HTML:     buf.String(),
	})
}
