// Package live pushes domain events to connected admin consoles over WebSocket.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bikerental/repository/events"
	jwtutil "bikerental/util/jwt"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans events out to every connected client. It implements events.Publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{clients: map[*client]struct{}{}, log: log}
}

var _ events.Publisher = (*Hub)(nil)

func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// a client that can't keep up is dropped rather than blocking publishers
	for _, c := range slow {
		h.log.Warn("live client too slow, disconnecting", "user_id", c.userID)
		h.remove(c)
	}
	return nil
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Handler authenticates an admin token (query ?token= or Authorization header)
// and upgrades the connection. Browsers cannot set headers on WebSocket
// handshakes, hence the query parameter.
func (h *Hub) Handler(secret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.QueryParam("token")
		if raw == "" {
			raw = c.Request().Header.Get(echo.HeaderAuthorization)
		}
		claims, err := jwtutil.ParseAuth(raw, secret)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		if claims.Role != "admin" {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "admin only"})
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			h.log.Warn("ws upgrade failed", "err", err)
			return nil
		}

		cl := &client{userID: claims.UserID, conn: conn, send: make(chan []byte, sendBuffer)}
		h.add(cl)
		h.log.Info("live client connected", "user_id", cl.userID, "clients", h.Count())

		go h.writePump(cl)
		h.readPump(cl)
		return nil
	}
}

// readPump only watches for close and pong frames; clients do not send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
		h.log.Info("live client disconnected", "user_id", c.userID)
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
