package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Broadcaster fans an event out to every open connection of a group.
//
// Delivery is best-effort and at-most-once per currently connected client:
// a send failure removes only the failing connection and never surfaces to
// the caller. History remains recoverable from the message store.
type Broadcaster struct {
	log     *slog.Logger
	reg     *Registry
	metrics *Metrics

	sendTimeout time.Duration
}

// NewBroadcaster constructs a Broadcaster over the given registry.
// A nil metrics handle disables instrumentation.
func NewBroadcaster(log *slog.Logger, reg *Registry, metrics *Metrics, sendTimeout time.Duration) *Broadcaster {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Broadcaster{log: log, reg: reg, metrics: metrics, sendTimeout: sendTimeout}
}

// Broadcast serializes event once and delivers it to every connection of the
// group except exclude. Failed connections are collected during the pass and
// deregistered afterwards (never mid-iteration), then the updated presence
// count is announced. Only a serialization failure surfaces as an error.
func (b *Broadcaster) Broadcast(ctx context.Context, groupID string, event any, exclude *Conn) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	conns := b.reg.snapshot(groupID)

	var failed []*Conn
	for _, c := range conns {
		if c == exclude {
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, b.sendTimeout)
		err := c.link.SendText(sendCtx, payload)
		cancel()

		if err != nil {
			b.log.Info("chat.broadcast.send.fail", "group_id", groupID, "err", err)
			if b.metrics != nil {
				b.metrics.BroadcastSendFailures.Inc()
			}
			failed = append(failed, c)
		}
	}

	for _, c := range failed {
		b.reg.Deregister(groupID, c)
		_ = c.link.Close()
	}

	// Failure-driven cleanup changed membership, so the count must be
	// re-announced. Recursion terminates: each pass strictly shrinks the set.
	if len(failed) > 0 {
		b.AnnouncePresence(ctx, groupID)
	}

	return nil
}
