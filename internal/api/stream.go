package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/talgya/desk-pet/internal/geom"
)

// WebSocket settings.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only, see Run
}

// ClientMessage is a host signal sent over the stream. Type is one of
// click, hover, pointer or window; the other fields are read per type.
type ClientMessage struct {
	Type   string    `json:"type"`
	On     bool      `json:"on,omitempty"`
	X      float64   `json:"x,omitempty"`
	Y      float64   `json:"y,omitempty"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
	Bounds geom.Rect `json:"bounds"`
}

// streamClient sits between one websocket and the companion.
type streamClient struct {
	id   string
	srv  *Server
	conn *websocket.Conn
	send chan []byte
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &streamClient{
		id:   uuid.NewString(),
		srv:  s,
		conn: conn,
		send: s.hub.Subscribe(),
	}
	slog.Info("stream client connected", "session", c.id, "clients", s.hub.Len())

	go c.writePump()
	c.readPump()
}

// readPump applies host signals until the connection drops.
func (c *streamClient) readPump() {
	defer func() {
		c.srv.hub.Unsubscribe(c.send)
		if err := c.conn.Close(); err != nil {
			slog.Debug("close websocket", "session", c.id, "error", err)
		}
		slog.Info("stream client disconnected", "session", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "session", c.id, "error", err)
			}
			return
		}
		if err := c.apply(msg); err != nil {
			slog.Debug("stream message dropped", "session", c.id, "type", msg.Type, "error", err)
			if err == errLoopStopped {
				return
			}
		}
	}
}

type streamError string

func (e streamError) Error() string { return string(e) }

const (
	errUnknownMessage streamError = "unknown message type"
	errLoopStopped    streamError = "event loop stopped"
)

func (c *streamClient) apply(msg ClientMessage) error {
	p := c.srv.Pet
	var fn func()
	switch msg.Type {
	case "click":
		fn = func() { p.Click() }
	case "hover":
		fn = func() { p.Hover(msg.On) }
	case "pointer":
		fn = func() { p.PointerMove(geom.Point{X: msg.X, Y: msg.Y}) }
	case "window":
		req := windowRequest{X: msg.X, Y: msg.Y, Width: msg.Width, Height: msg.Height, Bounds: msg.Bounds}
		fn = func() { req.apply(p) }
	default:
		return errUnknownMessage
	}
	if err := c.srv.Loop.Do(fn); err != nil {
		return errLoopStopped
	}
	return nil
}

// writePump forwards notifications and keeps the connection alive.
func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("websocket write failed", "session", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("websocket ping failed", "session", c.id, "error", err)
				return
			}
		}
	}
}
