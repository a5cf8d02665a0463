/*
Package chat implements the relay core.

This file defines the Hub, the single event loop that owns the Registry's
mutations and every outbound delivery. Each admission, removal and inbound
message is handled to completion before the next one starts, so admission is
all-or-nothing and members of a room see messages in the same order.
*/
package chat

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"provchat/internal/pkg/errs"
	"provchat/internal/pkg/logx"
)

const (
	// DefaultMaxMessageBytes is the frame size limit used when Options leaves it unset.
	DefaultMaxMessageBytes = 4 << 20

	inboundChannelBuffer = 1024
)

// Options tunes a Hub and the clients attached to it.
type Options struct {
	// MaxMessageBytes caps one inbound frame.
	MaxMessageBytes int64

	// MessageRate and MessageBurst throttle inbound events per client.
	// A zero MessageRate disables throttling.
	MessageRate  rate.Limit
	MessageBurst int
}

type admitRequest struct {
	client *Client
	result chan error
}

// inboundEvent is a decoded client frame waiting for routing.
type inboundEvent struct {
	client  *Client
	room    *RoomMessageInput
	private *PrivateMessageInput
}

// Hub routes messages between admitted clients.
type Hub struct {
	registry *Registry
	opts     Options

	// clients holds the admitted clients by connection id. Only the Run loop
	// touches it.
	clients map[string]*Client

	admit      chan admitRequest
	unregister chan *Client
	inbound    chan inboundEvent

	// evictions collects clients whose send queue overflowed during the
	// current event. They are removed once the event is handled.
	evictions []*Client

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger zerolog.Logger
}

// NewHub returns a Hub backed by an empty Registry. Start it with Run.
func NewHub(opts Options) *Hub {
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if opts.MessageRate > 0 && opts.MessageBurst < 1 {
		opts.MessageBurst = 1
	}

	return &Hub{
		registry:   NewRegistry(),
		opts:       opts,
		clients:    make(map[string]*Client),
		admit:      make(chan admitRequest),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent, inboundChannelBuffer),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logx.Component("hub"),
	}
}

// Registry exposes the hub's registry for read-only queries.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Admit registers client with its handshake profile and blocks until the
// loop has decided. When it returns nil, "info accepted" is already queued
// for the client and the room's updated user list and join notice for its
// members.
func (h *Hub) Admit(client *Client) error {
	req := admitRequest{client: client, result: make(chan error, 1)}

	select {
	case h.admit <- req:
	case <-h.done:
		return ErrShuttingDown
	}

	select {
	case err := <-req.result:
		return err
	case <-h.done:
		// The loop answers before it exits, so a stopped hub may still
		// have admitted the client.
		select {
		case err := <-req.result:
			return err
		default:
			return ErrShuttingDown
		}
	}
}

// Remove queues client for removal. Removing a client that was never
// admitted, or was already removed, does nothing.
func (h *Hub) Remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) submit(ev inboundEvent) {
	select {
	case h.inbound <- ev:
	case <-h.done:
	}
}

// Stop ends the Run loop. Every admitted client's send queue is closed,
// which closes its connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info().Msg("Received stop signal.")
		close(h.stopChan)
	})
}

// Done is closed when the Run loop has exited.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run is the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	h.logger.Info().Msg("Hub loop started.")

	defer func() {
		for id, c := range h.clients {
			close(c.send)
			delete(h.clients, id)
		}
		close(h.done)
		h.logger.Info().Msg("Hub loop stopped.")
	}()

	for {
		select {
		case req := <-h.admit:
			h.handleAdmit(req)

		case c := <-h.unregister:
			h.removeClient(c)

		case ev := <-h.inbound:
			h.handleInbound(ev)

		case <-h.stopChan:
			return
		}

		h.flushEvictions()
	}
}

func (h *Hub) handleAdmit(req admitRequest) {
	c := req.client

	if err := h.registry.Admit(c.ID, c.profile); err != nil {
		c.logger.Info().Err(err).Msg("Admission rejected.")
		req.result <- err
		return
	}

	h.clients[c.ID] = c
	c.logger.Info().Int("online", h.registry.Len()).Msg("Client admitted.")

	if msg, err := encodeEvent(EventInfoAccepted, nil); err == nil {
		h.deliver(c, msg)
	}

	room := c.profile.Room
	h.sendUserList(room)
	h.sendStatus(room, fmt.Sprintf("%s joined the %s chat.", c.profile.Nickname, room))

	req.result <- nil
}

// removeClient drops c from the registry and notifies its former room.
func (h *Hub) removeClient(c *Client) {
	if current, ok := h.clients[c.ID]; !ok || current != c {
		h.logger.Debug().Str("conn_id", c.ID).Msg("Ignoring removal of unknown client.")
		return
	}

	profile, ok := h.registry.Remove(c.ID)
	delete(h.clients, c.ID)
	close(c.send)

	if !ok {
		h.logger.Error().Str("conn_id", c.ID).Msg("Client was tracked but not registered.")
		return
	}

	c.logger.Info().Int("online", h.registry.Len()).Msg("Client removed.")

	h.sendUserList(profile.Room)
	h.sendStatus(profile.Room, fmt.Sprintf("%s left the %s chat.", profile.Nickname, profile.Room))
}

func (h *Hub) handleInbound(ev inboundEvent) {
	c := ev.client

	if _, ok := h.clients[c.ID]; !ok {
		c.logger.Warn().Msg("Dropping message from a connection that is not admitted.")
		return
	}

	if c.limiter != nil && !c.limiter.Allow() {
		if !c.throttled {
			c.throttled = true
			c.logger.Warn().Msg("Client exceeded its message rate, dropping events.")
			h.notify(c, errs.NewError(errs.ErrMessageRateExceeded).Message)
		}
		return
	}
	c.throttled = false

	switch {
	case ev.room != nil:
		h.routeRoomMessage(c, ev.room)
	case ev.private != nil:
		h.routePrivateMessage(c, ev.private)
	}
}

// routeRoomMessage delivers a message to every member of the room it names,
// sender included. Malformed messages are logged and dropped.
func (h *Hub) routeRoomMessage(c *Client, in *RoomMessageInput) {
	sender, ok := h.registry.Profile(c.ID)
	room := in.TargetRoom()
	if !ok || room == "" {
		c.logger.Warn().
			Str("target_room", room).
			Err(errs.NewError(errs.ErrMalformedMessage)).
			Msg("Room message without a valid sender or room.")
		return
	}

	out := RoomMessage{
		Sender:     sender.Nickname,
		Room:       room,
		Text:       in.Text,
		Timestamp:  in.Timestamp,
		Attachment: in.Attachment,
	}

	msg, err := encodeEvent(EventChatMessage, out)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode room message.")
		return
	}

	h.broadcast(room, msg)
	c.logger.Debug().Str("target_room", room).Int("text_bytes", len(in.Text)).Msg("Room message routed.")
}

// routePrivateMessage delivers a direct message to its recipient and echoes
// the same payload to the sender. A recipient that does not resolve, empty
// nickname included, produces a status notice for the sender only.
func (h *Hub) routePrivateMessage(c *Client, in *PrivateMessageInput) {
	sender, ok := h.registry.Profile(c.ID)
	if !ok {
		c.logger.Warn().
			Str("to", in.To).
			Err(errs.NewError(errs.ErrMalformedMessage)).
			Msg("Private message from an unregistered sender.")
		return
	}

	recipientID, found := h.registry.LookupByNickname(in.To)
	recipient := h.clients[recipientID]
	if !found || recipient == nil {
		notFound := errs.NewError(errs.ErrRecipientNotFound, in.To)
		c.logger.Info().Str("to", in.To).Msg("Private message to a nickname that is not online.")
		h.notify(c, notFound.Message)
		return
	}

	body := in.Body()
	if body == nil {
		c.logger.Warn().
			Str("to", in.To).
			Err(errs.NewError(errs.ErrMalformedMessage)).
			Msg("Private message without a body.")
		return
	}

	out := PrivateMessage{
		From:       sender.Nickname,
		To:         in.To,
		Text:       body.Text,
		Timestamp:  body.Timestamp,
		Attachment: body.Attachment,
	}

	msg, err := encodeEvent(EventPrivateMessage, out)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode private message.")
		return
	}

	h.deliver(recipient, msg)
	h.deliver(c, msg)
	c.logger.Debug().Str("to", in.To).Msg("Private message routed.")
}

// sendUserList pushes the current member list of room to its members.
func (h *Hub) sendUserList(room string) {
	msg, err := encodeEvent(EventUserList, h.registry.MembersOf(room))
	if err != nil {
		h.logger.Error().Err(err).Str("room", room).Msg("Failed to encode user list.")
		return
	}
	h.broadcast(room, msg)
}

// sendStatus pushes a human-readable notice to every member of room.
func (h *Hub) sendStatus(room, text string) {
	msg, err := encodeEvent(EventStatusMessage, text)
	if err != nil {
		h.logger.Error().Err(err).Str("room", room).Msg("Failed to encode status message.")
		return
	}
	h.broadcast(room, msg)
}

// notify sends a status notice to a single client.
func (h *Hub) notify(c *Client, text string) {
	msg, err := encodeEvent(EventStatusMessage, text)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode status message.")
		return
	}
	h.deliver(c, msg)
}

func (h *Hub) broadcast(room string, msg []byte) {
	for _, id := range h.registry.ConnectionsIn(room) {
		if c, ok := h.clients[id]; ok {
			h.deliver(c, msg)
		}
	}
}

// deliver queues msg on c without blocking. A full queue marks c for eviction.
func (h *Hub) deliver(c *Client, msg []byte) {
	if c.evicted {
		return
	}

	select {
	case c.send <- msg:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, evicting.")
		c.evicted = true
		h.evictions = append(h.evictions, c)
	}
}

// flushEvictions removes the clients marked by deliver. Removing one may
// overflow another, so it loops until nothing is pending.
func (h *Hub) flushEvictions() {
	for len(h.evictions) > 0 {
		c := h.evictions[0]
		h.evictions = h.evictions[1:]
		h.removeClient(c)
	}
}
