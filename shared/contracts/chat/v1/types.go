// Package v1 defines the sharebase group-chat wire contract.
//
// This package is intentionally stable and dependency-light.
// It is shared between server and clients to keep the wire protocol authoritative.
package v1

import (
	"strings"
	"time"
)

// Event type tags (wire-stable).
const (
	// TypeIdentify attaches a user identity to an open connection (client -> server).
	TypeIdentify = "identify"
	// TypeMessage carries a chat message. It is the default when the tag is
	// omitted (client -> server) and the broadcast shape (server -> clients).
	TypeMessage = "message"
	// TypeOnlineCount announces the live member count of a group (server -> clients).
	TypeOnlineCount = "online_count"
)

// Anonymous sender defaults, applied when a connection never identifies.
const (
	AnonymousUserID   = "anonymous"
	AnonymousUsername = "Anonymous"
)

// InboundEvent is the client -> server wire shape for both identify and
// message events. Type defaults to TypeMessage when empty.
type InboundEvent struct {
	Type     string `json:"type,omitempty"`
	User     string `json:"user,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

// EventKind is the decoded variant of an inbound event.
type EventKind uint8

const (
	// KindMessage is a chat message (also the default for an omitted tag).
	KindMessage EventKind = iota
	// KindIdentify attaches identity to the connection.
	KindIdentify
	// KindUnknown is any unrecognized tag. Unknown kinds are no-ops by
	// contract, never errors.
	KindUnknown
)

// Kind classifies the inbound event. An empty tag means TypeMessage.
func (e InboundEvent) Kind() EventKind {
	switch strings.TrimSpace(e.Type) {
	case "", TypeMessage:
		return KindMessage
	case TypeIdentify:
		return KindIdentify
	default:
		return KindUnknown
	}
}

// OnlineCountEvent is broadcast whenever group membership changes.
type OnlineCountEvent struct {
	Type    string `json:"type"`
	Count   int    `json:"count"`
	GroupID string `json:"group_id"`
}

// NewOnlineCountEvent builds an OnlineCountEvent with its tag set.
func NewOnlineCountEvent(groupID string, count int) OnlineCountEvent {
	return OnlineCountEvent{Type: TypeOnlineCount, Count: count, GroupID: groupID}
}

// MessageEvent is broadcast for every accepted chat message.
// Timestamp is always rendered as ISO-8601 (RFC 3339) in UTC.
type MessageEvent struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	User      string `json:"user"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	GroupID   string `json:"group_id"`
}

// FormatTimestamp renders a wire timestamp (ISO-8601, UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// HistoryItem is one element of the history read endpoint response,
// ordered oldest-first.
type HistoryItem struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// PresenceResponse is the presence read endpoint response.
type PresenceResponse struct {
	Online  int    `json:"online"`
	GroupID string `json:"group_id"`
}
