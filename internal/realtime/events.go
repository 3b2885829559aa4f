package realtime

import (
	"echochat/internal/dbmysql"
)

// EventType enumerates every event on the socket, both directions. Inbound
// events form a closed set dispatched through a switch; an event the switch
// does not know is dropped, never registered dynamically.
type EventType string

const (
	// client → server
	EventTyping     EventType = "typing"
	EventStopTyping EventType = "stopTyping"
	EventSend       EventType = "send"

	// server → client
	EventUserTyping     EventType = "userTyping"
	EventUserStopTyping EventType = "userStopTyping"
	EventNewMessage     EventType = "newMessage"
	EventMessageSent    EventType = "messageSent"
	EventSendError      EventType = "sendError"
	EventUserOnline     EventType = "userOnline"
	EventUserOffline    EventType = "userOffline"
)

// ClientEvent is the inbound envelope. ClientTag is an opaque correlation
// id the sender attaches to a send so the ack can be matched against its
// optimistic local echo.
type ClientEvent struct {
	Type      EventType `json:"type"`
	ToUserID  uint64    `json:"to_user_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	MediaRef  string    `json:"media_ref,omitempty"`
	ClientTag string    `json:"client_tag,omitempty"`
}

// ServerEvent is the outbound envelope. Message is set only for
// newMessage/messageSent and always carries a row persistence accepted.
type ServerEvent struct {
	Type       EventType        `json:"type"`
	UserID     uint64           `json:"user_id,omitempty"`
	FromUserID uint64           `json:"from_user_id,omitempty"`
	Message    *dbmysql.Message `json:"message,omitempty"`
	ClientTag  string           `json:"client_tag,omitempty"`
	Error      string           `json:"error,omitempty"`
}
