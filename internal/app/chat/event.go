package chat

import (
	"encoding/json"
	"fmt"
)

// EventType names a frame on the wire. The names match the events the web
// client already listens for.
type EventType string

const (
	// Server to client.
	EventInfoAccepted  EventType = "info accepted"
	EventNicknameInUse EventType = "nickname in use"
	EventUserList      EventType = "user list"
	EventStatusMessage EventType = "status message"

	// Both directions.
	EventChatMessage    EventType = "chat message"
	EventPrivateMessage EventType = "private message"
)

// Envelope is a single WebSocket text frame.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeEvent marshals data into an envelope. A nil data produces a frame
// without a data field.
func encodeEvent(event EventType, data any) ([]byte, error) {
	env := Envelope{Event: event}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %q payload: %w", event, err)
		}
		env.Data = raw
	}

	return json.Marshal(env)
}

// Attachment carries the optional inline file fields the web client adds to
// a message. The relay forwards them untouched.
type Attachment struct {
	Type     string `json:"type,omitempty"`
	URL      string `json:"url,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// RoomMessageInput is a room message as sent by a client. Older clients put
// the room under "province".
type RoomMessageInput struct {
	Room      string          `json:"room"`
	Province  string          `json:"province"`
	Text      string          `json:"text"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Attachment
}

// TargetRoom returns the room the message is addressed to.
func (m RoomMessageInput) TargetRoom() string {
	if m.Room != "" {
		return m.Room
	}
	return m.Province
}

// RoomMessage is the room broadcast delivered to every member.
type RoomMessage struct {
	Sender    string          `json:"sender"`
	Room      string          `json:"room"`
	Text      string          `json:"text"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Attachment
}

// MessageBody is the content of a private message.
type MessageBody struct {
	Text      string          `json:"text"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Attachment
}

// PrivateMessageInput is a direct message as sent by a client. The body is
// accepted under "msg" or "message".
type PrivateMessageInput struct {
	To      string       `json:"to"`
	Msg     *MessageBody `json:"msg,omitempty"`
	Message *MessageBody `json:"message,omitempty"`
}

// Body returns the message body, or nil when the client sent none.
func (m PrivateMessageInput) Body() *MessageBody {
	if m.Msg != nil {
		return m.Msg
	}
	return m.Message
}

// PrivateMessage is delivered to the recipient and echoed to the sender.
type PrivateMessage struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Text      string          `json:"text"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Attachment
}
