package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// NotificationHub fans notifications out to every open socket of a user.
type NotificationHub struct {
	clients    map[string]map[*websocket.Conn]bool // userID -> connections
	push       chan Delivery
	register   chan Subscription
	unregister chan Subscription
	mu         sync.Mutex
	done       chan struct{}
	closeOnce  sync.Once
	dropped    func()
}

type Subscription struct {
	Conn   *websocket.Conn
	UserID string
}

// Delivery is one payload addressed to a user.
type Delivery struct {
	UserID  string
	Payload any
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients:    make(map[string]map[*websocket.Conn]bool),
		push:       make(chan Delivery, 256),
		register:   make(chan Subscription),
		unregister: make(chan Subscription),
		done:       make(chan struct{}),
	}
}

// OnDrop sets a callback invoked whenever Push discards a delivery.
func (h *NotificationHub) OnDrop(fn func()) {
	h.dropped = fn
}

// Serve dispatches registrations and deliveries until ctx is cancelled.
func (h *NotificationHub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return nil

		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.UserID] == nil {
				h.clients[sub.UserID] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.UserID][sub.Conn] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			h.drop(sub.UserID, sub.Conn)
			h.mu.Unlock()

		case d := <-h.push:
			h.mu.Lock()
			for conn := range h.clients[d.UserID] {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(d.Payload); err != nil {
					logging.Debug().Err(err).Str("user_id", d.UserID).Msg("ws write failed")
					h.drop(d.UserID, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Push queues a payload for userID. It never blocks; when the queue is full
// the delivery is dropped since the notification is already persisted.
func (h *NotificationHub) Push(userID string, payload any) {
	select {
	case h.push <- Delivery{UserID: userID, Payload: payload}:
	default:
		if h.dropped != nil {
			h.dropped()
		}
		logging.Warn().Str("user_id", userID).Msg("notification push queue full")
	}
}

// Connected reports the number of open sockets for userID.
func (h *NotificationHub) Connected(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// caller must hold h.mu
func (h *NotificationHub) drop(userID string, conn *websocket.Conn) {
	if _, ok := h.clients[userID][conn]; !ok {
		return
	}
	delete(h.clients[userID], conn)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
	conn.Close()
}

func (h *NotificationHub) shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for conn := range conns {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			conn.Close()
		}
		delete(h.clients, userID)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket serves GET /ws/notifications. WSAuthMiddleware must run first.
func (h *NotificationHub) HandleWebSocket(c *gin.Context) {
	userID := utils.CurrentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	sub := Subscription{Conn: conn, UserID: userID}
	select {
	case h.register <- sub:
	case <-h.done:
		conn.Close()
		return
	}

	go h.keepAlive(sub)
	go h.readPump(sub)
}

// readPump discards client frames and unregisters on disconnect.
func (h *NotificationHub) readPump(sub Subscription) {
	defer func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}()

	sub.Conn.SetReadLimit(512)
	_ = sub.Conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.Conn.SetPongHandler(func(string) error {
		return sub.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *NotificationHub) keepAlive(sub Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.mu.Lock()
			if !h.clients[sub.UserID][sub.Conn] {
				h.mu.Unlock()
				return
			}
			err := sub.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			h.mu.Unlock()
			if err != nil {
				return
			}
		case <-h.done:
			return
		}
	}
}
