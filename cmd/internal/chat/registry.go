// Package chat contains the sharebase group-chat core: the connection
// registry, broadcast fanout, presence, and the websocket session handler.
package chat

import (
	"context"
	"log/slog"
	"sync"
)

// Link is the transport-level handle of one live realtime session.
// The registry and broadcaster only ever send on it or close it.
type Link interface {
	SendText(ctx context.Context, data []byte) error
	Close() error
}

// Conn is one live realtime session tied to exactly one group.
//
// Identity fields start empty and are set at most once when an identify
// event arrives. Readers must go through Identity so the anonymous
// defaults stay in one place.
type Conn struct {
	groupID string
	link    Link

	mu       sync.Mutex
	userID   string
	username string
}

// NewConn constructs a connection entry for a group. The link must have
// completed its accept handshake before the entry is registered.
func NewConn(groupID string, link Link) *Conn {
	return &Conn{groupID: groupID, link: link}
}

// GroupID returns the owning group id.
func (c *Conn) GroupID() string { return c.groupID }

// Identity returns the sender identity for this connection, with the
// anonymous placeholders applied when the connection never identified.
func (c *Conn) Identity() (userID, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	userID, username = c.userID, c.username
	if userID == "" {
		userID = anonymousUserID
	}
	if username == "" {
		username = anonymousUsername
	}
	return userID, username
}

func (c *Conn) setIdentity(userID, username string) {
	c.mu.Lock()
	c.userID = userID
	c.username = username
	c.mu.Unlock()
}

// Registry tracks which connections belong to which group.
//
// It is an explicitly injected service object, constructed once at process
// start. The per-group sets are the only shared mutable structure of the
// chat core and are mutated exclusively by Registry methods under r.mu.
type Registry struct {
	log *slog.Logger

	mu     sync.RWMutex
	groups map[string]map[*Conn]struct{}
}

// NewRegistry constructs an empty Registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:    log,
		groups: make(map[string]map[*Conn]struct{}),
	}
}

// Register adds a connection to its group's set. Re-registering an already
// present connection is a caller error that is never exercised in normal
// operation; the map key makes it a silent overwrite rather than a duplicate.
func (r *Registry) Register(groupID string, c *Conn) {
	if c == nil || groupID == "" {
		return
	}

	r.mu.Lock()
	set := r.groups[groupID]
	if set == nil {
		set = make(map[*Conn]struct{})
		r.groups[groupID] = set
	}
	set[c] = struct{}{}
	r.mu.Unlock()

	r.log.Info("chat.conn.register", "group_id", groupID)
}

// Deregister removes a connection from its group's set. Absent connections
// are a no-op: disconnect handling and failed-broadcast cleanup may race and
// both deregister the same connection.
func (r *Registry) Deregister(groupID string, c *Conn) {
	if c == nil || groupID == "" {
		return
	}

	r.mu.Lock()
	set := r.groups[groupID]
	_, present := set[c]
	if present {
		delete(set, c)
		if len(set) == 0 {
			delete(r.groups, groupID)
		}
	}
	r.mu.Unlock()

	if present {
		r.log.Info("chat.conn.deregister", "group_id", groupID)
	}
}

// Count returns the number of open connections for a group. Reading never
// creates a group entry; unknown groups count as zero.
func (r *Registry) Count(groupID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[groupID])
}

// SetIdentity updates the identity fields of a registered connection.
// A connection that already disconnected is a no-op, not an error.
func (r *Registry) SetIdentity(groupID string, c *Conn, userID, username string) {
	if c == nil {
		return
	}

	r.mu.RLock()
	_, present := r.groups[groupID][c]
	r.mu.RUnlock()

	if !present {
		return
	}
	c.setIdentity(userID, username)
}

// snapshot copies a group's current connection set. Broadcast iterates the
// copy so concurrent joins and leaves never disturb an in-flight fanout.
func (r *Registry) snapshot(groupID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.groups[groupID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
