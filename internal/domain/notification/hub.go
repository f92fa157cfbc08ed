package notification

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// Hub relays payment events from Redis pub/sub to connected admin
// dashboard websockets.
type Hub struct {
	redis    *redis.Client
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

func NewHub(redisClient *redis.Client, allowedOrigins []string) *Hub {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &Hub{
		redis: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Run subscribes to the event channel and broadcasts until ctx is done.
// Without Redis the hub accepts connections but has nothing to relay.
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil {
		log.Warn().Msg("notification hub running without Redis, no events will be relayed")
		<-ctx.Done()
		return
	}

	sub := h.redis.Subscribe(ctx, Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.Close()
}

// ServeWS upgrades the connection and registers it for the live feed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go h.keepAlive(conn)
	go h.readLoop(conn)
}

func (h *Hub) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		_, alive := h.clients[conn]
		h.mu.RUnlock()
		if !alive {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			h.drop(conn)
			return
		}
	}
}

// readLoop drains client frames so pongs and close messages are
// processed.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.drop(conn)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
