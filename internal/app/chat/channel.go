/*
Package chat maintains the guild chat realtime channel and its message log.

This file defines the Channel, which owns exactly one live bidirectional
connection per guild-hall visit: connect, receive, send, and close. Inbound
frames are appended to the ordered log; there is no automatic reconnection,
the owner re-creates the channel to reconnect.
*/
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"questify/internal/pkg/errs"
	"questify/internal/pkg/logx"
)

const (
	// timeout duration for writing to the connection.
	writeWait = 10 * time.Second

	// maximum allowed size (in bytes) of an inbound frame.
	maxFrameSize = 8192

	// outbound send budget: sustained messages per second and burst size.
	sendRate  = 1.0
	sendBurst = 5

	// fallback author name for inbound frames without one.
	unknownAuthor = "Unknown"
)

// ChannelState is the channel's connection lifecycle state.
type ChannelState int

const (
	StateDisconnected ChannelState = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

// String returns the state name for logging.
func (s ChannelState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// Channel manages one guild chat connection and its ordered message log.
type Channel struct {
	mu      sync.Mutex
	writeMu sync.Mutex

	state ChannelState
	conn  *websocket.Conn

	author    string
	log       *Log
	limiter   *rate.Limiter
	onMessage func(Message)

	done     chan struct{}
	doneOnce sync.Once

	logger zerolog.Logger
}

// NewChannel constructs a disconnected Channel. Outbound frames carry author
// as the sender display name.
func NewChannel(author string) *Channel {
	return &Channel{
		state:   StateDisconnected,
		author:  author,
		log:     NewLog(),
		limiter: rate.NewLimiter(rate.Limit(sendRate), sendBurst),
		done:    make(chan struct{}),
		logger:  logx.Logger().With().Str("component", "chat").Str("author", author).Logger(),
	}
}

// OnMessage registers a callback invoked from the read pump after each append.
// Must be set before Connect; it is not safe to change afterwards.
func (c *Channel) OnMessage(fn func(Message)) {
	c.onMessage = fn
}

// State returns the current connection state.
func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the ordered message log.
func (c *Channel) Messages() []Message {
	return c.log.Messages()
}

// Done is closed when the connection has terminated, whether by Close, a
// transport error, or a remote close.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Connect dials the streaming endpoint and, on success, starts the read pump.
// Valid only from Disconnected; a failed dial lands in Closed.
func (c *Channel) Connect(ctx context.Context, wsURL string) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		c.logger.Warn().Str("state", state.String()).Msg("Connect called on a non-disconnected channel")
		return errs.NewError(errs.ErrChannelDial)
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", wsURL).Msg("Guild chat dial failed")
		c.terminate()
		return errs.NewError(errs.ErrChannelDial)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	c.logger.Info().Str("url", wsURL).Msg("Guild chat connected")

	go c.readPump()

	return nil
}

// Send writes one outbound frame with the session's display name and the
// current time. Sends are rejected, without panicking, when the channel is not
// open or the local rate budget is exhausted.
func (c *Channel) Send(body string) error {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		return errs.NewError(errs.ErrChannelNotOpen)
	}

	if !c.limiter.Allow() {
		c.logger.Warn().Msg("Outbound message dropped by local rate limit")
		return errs.NewError(errs.ErrSendRateLimited)
	}

	payload, err := json.Marshal(frame{
		User:      c.author,
		Message:   body,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return errs.NewError(errs.ErrUnknown)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return errs.NewError(errs.ErrChannelClosed)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.logger.Warn().Err(err).Msg("Outbound write failed")
		return errs.NewError(errs.ErrChannelClosed)
	}

	return nil
}

// Close tears the connection down deterministically. It is idempotent and
// safe to call from any state; after Close the channel is never reused.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.state == StateClosing || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosing
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		deadline := time.Now().Add(writeWait)
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()

		if err := conn.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Connection close error")
		}
	}

	c.terminate()
	c.logger.Info().Msg("Guild chat channel closed")
}

// readPump reads inbound frames until the connection terminates, appending
// each decoded frame to the log in arrival order.
func (c *Channel) readPump() {
	defer c.terminate()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	conn.SetReadLimit(maxFrameSize)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn().Err(err).Msg("Guild chat connection lost")
			}
			return
		}

		var inbound frame
		if err := json.Unmarshal(raw, &inbound); err != nil {
			c.logger.Warn().Err(err).Bytes("frame", raw).Msg("Discarding undecodable inbound frame")
			continue
		}

		author := inbound.User
		if author == "" {
			author = unknownAuthor
		}

		// The sender-claimed timestamp is ignored; the log stamps receipt time.
		msg := c.log.Append(author, inbound.Message)
		c.logger.Debug().Uint64("seq", msg.Seq).Str("from", author).Msg("Inbound message appended")

		if c.onMessage != nil {
			c.onMessage(msg)
		}
	}
}

// terminate marks the channel Closed, closes the socket if still open, and
// releases Done exactly once.
func (c *Channel) terminate() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = StateClosed
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	c.doneOnce.Do(func() { close(c.done) })
}
