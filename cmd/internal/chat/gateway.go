package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	chatv1 "sharebase/shared/contracts/chat/v1"
)

// GatewayConfig carries the transport policy for the websocket entrypoint.
type GatewayConfig struct {
	// Origin policy for the upgrade handshake. Secure-by-default:
	// origin required, only localhost allowed.
	OriginRequired bool
	AllowedOrigins []string

	// DevInsecure skips TLS verification in websocket.Accept (dev only).
	DevInsecure bool

	WriteTimeout time.Duration

	// ReadIdle bounds how long a connection may sit without sending any
	// event before the session is closed.
	ReadIdle time.Duration

	RateEvents int
	RateWindow time.Duration
}

// DefaultGatewayConfig returns the secure development defaults.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		OriginRequired: true,
		AllowedOrigins: []string{"http://localhost", "http://127.0.0.1"},
		WriteTimeout:   defaultWriteTimeout,
		ReadIdle:       defaultReadIdle,
		RateEvents:     rateLimitEvents,
		RateWindow:     rateLimitWindow,
	}
}

// Gateway is the WebSocket entrypoint of the chat core. It runs the
// per-connection session: accept, register, event loop, unconditional
// cleanup on any close path.
type Gateway struct {
	log     *slog.Logger
	reg     *Registry
	bcast   *Broadcaster
	store   MessageStore
	cache   RecentCache
	metrics *Metrics

	cfg GatewayConfig

	// Derived for websocket.Accept origin checks: Accept authorizes same-host
	// origins by default, cross-origin requires OriginPatterns.
	originPatterns []string
}

// NewGateway constructs a gateway. cache and metrics may be nil.
func NewGateway(log *slog.Logger, reg *Registry, bcast *Broadcaster, store MessageStore, cache RecentCache, metrics *Metrics, cfg GatewayConfig) *Gateway {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ReadIdle <= 0 {
		cfg.ReadIdle = defaultReadIdle
	}
	if cfg.RateEvents <= 0 {
		cfg.RateEvents = rateLimitEvents
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = rateLimitWindow
	}

	return &Gateway{
		log:            log,
		reg:            reg,
		bcast:          bcast,
		store:          store,
		cache:          cache,
		metrics:        metrics,
		cfg:            cfg,
		originPatterns: deriveOriginPatterns(cfg.AllowedOrigins),
	}
}

// ServeHTTP adapter so the gateway can be mounted as an http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.HandleWS(w, r)
}

// HandleWS upgrades the request to a websocket scoped to one group and runs
// the session until disconnect.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("group")
	if groupID == "" {
		http.Error(w, "missing group id", http.StatusBadRequest)
		return
	}

	if err := g.enforceOrigin(r); err != nil {
		g.log.Info("ws.reject.origin", "err", err, "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     g.originPatterns,
		InsecureSkipVerify: g.cfg.DevInsecure,
	})
	if err != nil {
		g.log.Error("ws.accept.fail", "group_id", groupID, "err", err)
		return
	}

	conn.SetReadLimit(maxFrameBytes)

	link := &wsLink{conn: conn}
	c := NewConn(groupID, link)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Cleanup is unconditional and idempotent: every close path funnels here.
	// Deregister first, then announce, so the count never includes this conn.
	// The announce must precede conn.Close: the close handshake can block for
	// seconds on an unresponsive peer, and survivors must not wait on it.
	var closeOnce sync.Once
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			g.reg.Deregister(groupID, c)
			if g.metrics != nil {
				g.metrics.ConnectionsOpen.Dec()
			}
			g.bcast.AnnouncePresence(context.Background(), groupID)
			_ = conn.Close(code, reason)
			cancel()
		})
	}
	defer shutdown(websocket.StatusNormalClosure, "bye")

	g.reg.Register(groupID, c)
	if g.metrics != nil {
		g.metrics.ConnectionsOpen.Inc()
	}
	g.bcast.AnnouncePresence(ctx, groupID)

	rl := NewRateLimiter(g.cfg.RateEvents, g.cfg.RateWindow)

	for {
		// Each read carries an idle deadline; a silent connection is
		// reclaimed instead of held open indefinitely.
		readCtx, readCancel := context.WithTimeout(ctx, g.cfg.ReadIdle)
		ev, err := readEvent(readCtx, conn)
		readCancel()
		if err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				g.log.Info("ws.read.idle", "group_id", groupID, "idle", g.cfg.ReadIdle)
				shutdown(websocket.StatusGoingAway, "idle timeout")
				return
			}
			switch classifyReadErr(err) {
			case readErrClose:
				shutdown(websocket.StatusNormalClosure, "peer closed")
			case readErrCtxDone:
				shutdown(websocket.StatusNormalClosure, "context done")
			case readErrConnClosed:
				shutdown(websocket.StatusAbnormalClosure, "conn closed")
			case readErrBadPayload:
				// Malformed inbound events are connection-fatal by contract.
				g.log.Info("ws.read.bad_payload", "group_id", groupID, "err", err)
				shutdown(websocket.StatusProtocolError, "malformed event")
			default:
				g.log.Info("ws.read.fail", "group_id", groupID, "err", err)
				shutdown(websocket.StatusAbnormalClosure, "read failed")
			}
			return
		}

		now := time.Now().UTC()
		if !rl.Allow(now) {
			g.log.Info("ws.rate_limited", "group_id", groupID)
			shutdown(websocket.StatusPolicyViolation, "rate limited")
			return
		}

		switch ev.Kind() {
		case chatv1.KindIdentify:
			g.reg.SetIdentity(groupID, c, strings.TrimSpace(ev.User), strings.TrimSpace(ev.Username))
			g.bcast.AnnouncePresence(ctx, groupID)

		case chatv1.KindMessage:
			g.onMessage(ctx, c, ev, now)

		case chatv1.KindUnknown:
			// Unknown tags fall through as no-ops; that is the observed contract.
		}
	}
}

// onMessage validates, persists, and broadcasts one chat message.
//
// A whitespace-only text is a silent no-op (frequent client-side race, not an
// error). A persistence failure is logged server-side and keeps the session
// open. The broadcast excludes the sender: clients render their own message
// optimistically and must not receive an echo.
func (g *Gateway) onMessage(ctx context.Context, c *Conn, ev chatv1.InboundEvent, now time.Time) {
	text := strings.TrimSpace(ev.Message)
	if text == "" {
		return
	}
	if len([]rune(text)) > maxMessageChars {
		g.log.Info("chat.message.too_long", "group_id", c.GroupID(), "chars", len([]rune(text)))
		return
	}

	senderID, senderName := c.Identity()

	stored, err := g.store.Insert(ctx, InsertMessageInput{
		GroupID:    c.GroupID(),
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		Now:        now,
	})
	if err != nil {
		g.log.Error("chat.persist.fail", "group_id", c.GroupID(), "err", err)
		if g.metrics != nil {
			g.metrics.PersistFailures.Inc()
		}
		return
	}
	if g.metrics != nil {
		g.metrics.MessagesPersisted.Inc()
	}

	if g.cache != nil {
		if err := g.cache.Invalidate(ctx, c.GroupID()); err != nil {
			g.log.Info("chat.cache.invalidate.fail", "group_id", c.GroupID(), "err", err)
		}
	}

	out := chatv1.MessageEvent{
		Type:      chatv1.TypeMessage,
		ID:        stored.ID,
		User:      stored.SenderID,
		Username:  stored.SenderName,
		Message:   stored.Text,
		Timestamp: chatv1.FormatTimestamp(stored.SentAt),
		GroupID:   stored.GroupID,
	}
	_ = g.bcast.Broadcast(ctx, c.GroupID(), out, c)
}

// ---- transport link ----

// wsLink adapts a coder/websocket connection to the Link interface.
// The mutex serializes writes: broadcasts from concurrent sessions may
// target the same socket.
type wsLink struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (l *wsLink) SendText(ctx context.Context, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.Write(ctx, websocket.MessageText, data)
}

func (l *wsLink) Close() error {
	return l.conn.Close(websocket.StatusGoingAway, "send failed")
}

// ---- event IO ----

func readEvent(ctx context.Context, conn *websocket.Conn) (chatv1.InboundEvent, error) {
	mt, data, err := conn.Read(ctx)
	if err != nil {
		return chatv1.InboundEvent{}, err
	}
	if mt != websocket.MessageText && mt != websocket.MessageBinary {
		return chatv1.InboundEvent{}, errBadPayload{fmt.Errorf("unsupported message type: %v", mt)}
	}
	var ev chatv1.InboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return chatv1.InboundEvent{}, errBadPayload{err}
	}
	return ev, nil
}

// ---- read error classification ----

type errBadPayload struct{ err error }

func (e errBadPayload) Error() string { return e.err.Error() }
func (e errBadPayload) Unwrap() error { return e.err }

type readErrKind uint8

const (
	readErrUnknown readErrKind = iota
	readErrClose
	readErrCtxDone
	readErrConnClosed
	readErrBadPayload
)

func classifyReadErr(err error) readErrKind {
	var bad errBadPayload
	if errors.As(err, &bad) {
		return readErrBadPayload
	}
	if websocket.CloseStatus(err) != -1 {
		return readErrClose
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return readErrCtxDone
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return readErrConnClosed
	}
	return readErrUnknown
}

// ---- origin policy ----

func (g *Gateway) enforceOrigin(r *http.Request) error {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		if g.cfg.OriginRequired {
			return errors.New("missing origin")
		}
		return nil
	}

	if len(g.cfg.AllowedOrigins) == 0 {
		return errors.New("origin not allowed (no allowlist)")
	}

	originHost := originHostOnly(origin)

	for _, a := range g.cfg.AllowedOrigins {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if a == "*" {
			// Strongly discouraged, but honored if explicitly configured.
			return nil
		}

		// Full origin match (scheme + host + optional port).
		if origin == a {
			return nil
		}

		// Host match fallback (ignores port/scheme).
		if originHost != "" && originHost == originHostOnly(a) {
			return nil
		}
	}

	return fmt.Errorf("origin not allowed: %s", origin)
}

func originHostOnly(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// URL form.
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		h := strings.TrimSpace(u.Host)
		if h == "" {
			return ""
		}
		if host, _, err := net.SplitHostPort(h); err == nil {
			return strings.ToLower(host)
		}
		return strings.ToLower(h)
	}

	// host[:port] form.
	if host, _, err := net.SplitHostPort(s); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(s)
}

func deriveOriginPatterns(allowed []string) []string {
	// websocket.Accept matches OriginPatterns against the origin host using
	// filepath.Match patterns. Only hosts extracted from the allowlist are accepted.
	seen := make(map[string]struct{}, len(allowed))

	for _, a := range allowed {
		h := originHostOnly(a)
		if h == "" || h == "*" {
			continue
		}
		seen[h] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}

	slices.Sort(out)
	return out
}
