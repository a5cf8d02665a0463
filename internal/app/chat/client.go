/*
Package chat implements the relay core.

This file defines the Client, one WebSocket connection. ReadPump decodes
inbound frames and hands them to the Hub; WritePump drains the send queue
that only the Hub writes to.
*/
package chat

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"provchat/internal/app/user"
	"provchat/internal/pkg/errs"
	"provchat/internal/pkg/logx"
)

const (
	// time allowed to write one frame.
	writeWait = 10 * time.Second

	// time allowed between pongs before the connection is considered dead.
	pongWait = 60 * time.Second

	// ping interval. Must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// outbound frames queued per client before it counts as a slow consumer.
	sendBufferSize = 256
)

// Client is a connection and the profile it declared at handshake.
type Client struct {
	// ID is the opaque connection identifier.
	ID string

	hub     *Hub
	conn    *websocket.Conn
	profile user.Profile

	// send queues encoded frames. The Hub owns it once the client is
	// admitted; before that only Reject touches it.
	send chan []byte

	// limiter throttles inbound events; nil means unlimited.
	limiter *rate.Limiter

	// throttled and evicted are only accessed by the Hub loop.
	throttled bool
	evicted   bool

	logger zerolog.Logger
}

// NewClient wraps conn for hub. The client is inert until hub.Admit accepts it.
func NewClient(hub *Hub, conn *websocket.Conn, id string, profile user.Profile) *Client {
	c := &Client{
		ID:      id,
		hub:     hub,
		conn:    conn,
		profile: profile,
		send:    make(chan []byte, sendBufferSize),
		logger: logx.Logger().With().
			Str("conn_id", id).
			Str("nickname", profile.Nickname).
			Str("room", profile.Room).
			Logger(),
	}

	if hub.opts.MessageRate > 0 {
		c.limiter = rate.NewLimiter(hub.opts.MessageRate, hub.opts.MessageBurst)
	}

	return c
}

// Profile returns the profile the client declared at handshake.
func (c *Client) Profile() user.Profile {
	return c.profile
}

// Reject tells a client that was not admitted why, then closes its send
// queue so WritePump flushes the notice and closes the connection.
// It must not be called on an admitted client.
func (c *Client) Reject(err error) {
	reason := errs.NewError(errs.ErrUnknown).Message

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		reason = customErr.Message
	}

	msg, encErr := encodeEvent(EventNicknameInUse, reason)
	if encErr != nil {
		c.logger.Error().Err(encErr).Msg("Failed to encode rejection notice.")
	} else {
		c.send <- msg
	}

	close(c.send)
}

// ReadPump reads frames until the connection fails, then removes the client
// from the hub and closes the connection.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(c.hub.opts.MaxMessageBytes)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			} else {
				c.logger.Debug().Err(err).Msg("Connection closed")
			}
			return
		}

		c.handleFrame(data)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.hub.Remove(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}
}

// handleFrame decodes one inbound frame and submits it for routing.
// Frames that do not decode are logged and dropped.
func (c *Client) handleFrame(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn().
			Err(errs.NewError(errs.ErrInvalidJSONFormat)).
			AnErr("cause", err).
			Int("frame_bytes", len(data)).
			Msg("Client sent invalid JSON")
		return
	}

	switch env.Event {
	case EventChatMessage:
		var in RoomMessageInput
		if err := json.Unmarshal(env.Data, &in); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent an invalid room message")
			return
		}
		c.hub.submit(inboundEvent{client: c, room: &in})

	case EventPrivateMessage:
		var in PrivateMessageInput
		if err := json.Unmarshal(env.Data, &in); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent an invalid private message")
			return
		}
		c.hub.submit(inboundEvent{client: c, private: &in})

	default:
		c.logger.Warn().Str("event", string(env.Event)).Msg("Client sent unsupported event")
	}
}

// WritePump writes queued frames and keepalive pings until the send queue is
// closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !c.writeQueued(msg, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueued writes one frame, or a close frame when the queue is closed.
// It reports whether WritePump should continue.
func (c *Client) writeQueued(msg []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := c.conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.logger.Info().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Info().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
