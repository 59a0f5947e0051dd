package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/brightsmile-ai/receptionist/internal/notify"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	maxMsgSize = 512
)

// InboundMessage is what the dashboard sends.
type InboundMessage struct {
	Type string `json:"type"` // "ping"
}

// OutboundEvent is what we push to the dashboard.
type OutboundEvent struct {
	Type    string          `json:"type"` // "connected", "new_booking", "pong"
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hub forwards booking events from Redis pub/sub to connected dashboard
// WebSockets. One Redis subscription is held per channel and fanned out to
// every dashboard watching that channel.
type Hub struct {
	redis    *redis.Client
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	feeds map[string]*feed // channel -> active subscription
}

type feed struct {
	sub     *redis.PubSub
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub on the given Redis client. allowedOrigins restricts
// the WebSocket handshake; empty or "*" allows any origin.
func NewHub(rdb *redis.Client, allowedOrigins []string, logger *logging.Logger) *Hub {
	if rdb == nil {
		panic("realtime: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Hub{
		redis:  rdb,
		logger: logger,
		feeds:  make(map[string]*feed),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// HandleDashboard upgrades the request and streams booking events. The
// clinic_id query parameter scopes the stream; without it the client gets
// the cross-clinic firehose.
func (h *Hub) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	channel := notify.FirehoseChannel
	if clinicID := r.URL.Query().Get("clinic_id"); clinicID != "" {
		channel = notify.ChannelFor(clinicID)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("dashboard upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	if err := h.attach(r.Context(), channel, c); err != nil {
		h.logger.Error("dashboard subscribe failed", "channel", channel, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	// Confirm the subscription is live before any events can flow.
	hello, _ := json.Marshal(OutboundEvent{Type: "connected", Channel: channel})
	c.send <- hello

	h.logger.Info("dashboard connected", "channel", channel, "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump(func() { h.detach(channel, c) })
}

// attach registers the client, creating the Redis subscription on first use.
func (h *Hub) attach(ctx context.Context, channel string, c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[channel]
	if !ok {
		sub := h.redis.Subscribe(context.WithoutCancel(ctx), channel)
		recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := sub.Receive(recvCtx); err != nil {
			_ = sub.Close()
			return fmt.Errorf("realtime: subscribe %s: %w", channel, err)
		}
		f = &feed{sub: sub, clients: make(map[*client]struct{})}
		h.feeds[channel] = f
		go h.fanout(channel, f)
	}
	f.clients[c] = struct{}{}
	return nil
}

// detach removes the client and tears down the subscription when the last
// watcher leaves.
func (h *Hub) detach(channel string, c *client) {
	h.mu.Lock()
	f, ok := h.feeds[channel]
	if ok {
		delete(f.clients, c)
		if len(f.clients) == 0 {
			_ = f.sub.Close()
			delete(h.feeds, channel)
		}
	}
	h.mu.Unlock()
	close(c.send)
}

// fanout copies every Redis message on the feed to all attached clients.
// Slow clients get dropped frames rather than blocking the feed.
func (h *Hub) fanout(channel string, f *feed) {
	for msg := range f.sub.Channel() {
		frame, err := json.Marshal(OutboundEvent{
			Type: "new_booking",
			Data: json.RawMessage(msg.Payload),
		})
		if err != nil {
			h.logger.Error("event frame marshal failed", "channel", channel, "error", err)
			continue
		}
		h.mu.Lock()
		for c := range f.clients {
			select {
			case c.send <- frame:
			default:
				h.logger.Warn("dashboard client lagging, frame dropped", "channel", channel)
			}
		}
		h.mu.Unlock()
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump(onClose func()) {
	defer func() {
		onClose()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong, _ := json.Marshal(OutboundEvent{Type: "pong"})
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}
