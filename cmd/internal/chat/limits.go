package chat

import (
	"time"

	chatv1 "sharebase/shared/contracts/chat/v1"
)

// Security/performance limits for the realtime channel.
const (
	// Max bytes per websocket frame read (hard limit).
	maxFrameBytes = 64 << 10 // 64 KiB

	// Max message text length (runes), matching the stored document bound.
	maxMessageChars = 1000

	// History read endpoint returns at most this many messages, oldest-first.
	historyLimit = 100
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultSendTimeout  = 5 * time.Second
	defaultReadIdle     = 2 * time.Minute

	// Per-connection rate limits (events per window).
	rateLimitEvents = 120
	rateLimitWindow = 10 * time.Second
)

// Anonymous sender placeholders, shared with the wire contract.
const (
	anonymousUserID   = chatv1.AnonymousUserID
	anonymousUsername = chatv1.AnonymousUsername
)
