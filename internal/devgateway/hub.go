/*
Package devgateway is an in-memory stand-in for the Questify application server.

This file implements the guild chat hub behind /ws/guild-chat. Every inbound
frame is broadcast verbatim to all connected clients, the sender included,
matching the real server's behavior.
*/
package devgateway

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"questify/internal/pkg/logx"
)

const (
	// hubWriteWait is the timeout for writing one frame to a client.
	hubWriteWait = 10 * time.Second

	// hubPongWait is the maximum wait for a pong before dropping a client.
	hubPongWait = 60 * time.Second

	// hubPingPeriod is the heartbeat interval; must be under hubPongWait.
	hubPingPeriod = (hubPongWait * 9) / 10

	// hubMaxFrameSize caps inbound frame size in bytes.
	hubMaxFrameSize = 8192

	// hubSendBuffer is the per-client outbound queue length.
	hubSendBuffer = 64
)

// Hub fans every inbound guild chat frame out to all connected clients.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*hubClient
	logger  zerolog.Logger
}

// hubClient is one connected guild chat participant.
type hubClient struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	logger zerolog.Logger
}

// NewHub returns an empty guild chat hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*hubClient),
		logger:  logx.Logger().With().Str("component", "guild_chat_hub").Logger(),
	}
}

// HandleConnection registers an upgraded connection and blocks running its
// read loop until the client disconnects.
func (h *Hub) HandleConnection(conn *websocket.Conn) {
	client := &hubClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, hubSendBuffer),
		hub:  h,
	}
	client.logger = h.logger.With().Str("connection_id", client.id).Logger()

	h.mu.Lock()
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	client.logger.Info().Int("connected", count).Msg("Guild chat client joined")

	go client.writePump()
	client.readPump()
}

// Shutdown closes every connected client.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
}

// broadcast queues the frame for every connected client, dropping it for
// clients whose queue is full.
func (h *Hub) broadcast(raw []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		select {
		case client.send <- raw:
		default:
			client.logger.Warn().Msg("Client send queue full, dropping frame")
		}
	}
}

// remove unregisters the client and closes its outbound queue.
func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(client.send)
	}
}

// readPump reads frames and hands them to the hub until the connection drops.
func (c *hubClient) readPump() {
	defer func() {
		c.hub.remove(c.id)
		_ = c.conn.Close()
		c.logger.Info().Msg("Guild chat client left")
	}()

	c.conn.SetReadLimit(hubMaxFrameSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(hubPongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(hubPongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info().Err(err).Msg("Guild chat read ended")
			}
			return
		}
		c.hub.broadcast(raw)
	}
}

// writePump drains the outbound queue and keeps the heartbeat going.
func (c *hubClient) writePump() {
	ticker := time.NewTicker(hubPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(hubWriteWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(hubWriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
