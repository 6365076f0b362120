package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	chatv1 "sharebase/shared/contracts/chat/v1"
)

func newSessionTestServer(t *testing.T, store MessageStore) *httptest.Server {
	t.Helper()

	reg := NewRegistry(discardLogger())
	bcast := NewBroadcaster(discardLogger(), reg, nil, time.Second)

	cfg := DefaultGatewayConfig()
	cfg.OriginRequired = false

	gw := NewGateway(discardLogger(), reg, bcast, store, nil, nil, cfg)

	mux := http.NewServeMux()
	mux.Handle("GET /chat/ws/{group}", gw)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialGroup(t *testing.T, ctx context.Context, srv *httptest.Server, groupID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws/" + groupID
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func sendWire(t *testing.T, ctx context.Context, conn *websocket.Conn, v any) {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readWire(t *testing.T, ctx context.Context, conn *websocket.Conn) map[string]any {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(readCtx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return m
}

func wantCount(t *testing.T, ev map[string]any, count int, groupID string) {
	t.Helper()
	if ev["type"] != "online_count" || ev["count"] != float64(count) || ev["group_id"] != groupID {
		t.Fatalf("event=%v want online_count count=%d group_id=%s", ev, count, groupID)
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := NewInMemoryStore()
	srv := newSessionTestServer(t, store)

	// Client A connects to g1 and observes itself.
	a := dialGroup(t, ctx, srv, "g1")
	wantCount(t, readWire(t, ctx, a), 1, "g1")

	// A identifies; the count is re-announced.
	sendWire(t, ctx, a, chatv1.InboundEvent{Type: "identify", User: "u1", Username: "Alice"})
	wantCount(t, readWire(t, ctx, a), 1, "g1")

	// Client B connects; both observe count 2.
	b := dialGroup(t, ctx, srv, "g1")
	wantCount(t, readWire(t, ctx, a), 2, "g1")
	wantCount(t, readWire(t, ctx, b), 2, "g1")

	sendWire(t, ctx, b, chatv1.InboundEvent{Type: "identify", User: "u2", Username: "Bob"})
	wantCount(t, readWire(t, ctx, a), 2, "g1")
	wantCount(t, readWire(t, ctx, b), 2, "g1")

	// B sends a message; A receives it, B gets no echo.
	sendWire(t, ctx, b, chatv1.InboundEvent{Type: "message", User: "u2", Username: "Bob", Message: "hi"})
	msg := readWire(t, ctx, a)
	if msg["type"] != "message" || msg["username"] != "Bob" || msg["message"] != "hi" || msg["group_id"] != "g1" {
		t.Fatalf("A got unexpected event: %v", msg)
	}

	// A replies. The next event B sees must be A's message, proving B never
	// received an echo of its own send.
	sendWire(t, ctx, a, chatv1.InboundEvent{Message: "yo"})
	reply := readWire(t, ctx, b)
	if reply["type"] != "message" || reply["username"] != "Alice" || reply["message"] != "yo" {
		t.Fatalf("B got unexpected event: %v", reply)
	}

	// B disconnects; A observes count 1.
	if err := b.Close(websocket.StatusNormalClosure, "leaving"); err != nil {
		t.Fatalf("close B: %v", err)
	}
	wantCount(t, readWire(t, ctx, a), 1, "g1")

	// Both messages were persisted in order.
	msgs, err := store.Recent(ctx, "g1", historyLimit)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(msgs))
	}
	if msgs[0].Text != "yo" || msgs[1].Text != "hi" {
		t.Fatalf("recent order=(%q,%q) want newest-first (yo, hi)", msgs[0].Text, msgs[1].Text)
	}
}

func TestSessionMalformedEventClosesConnection(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv := newSessionTestServer(t, NewInMemoryStore())

	a := dialGroup(t, ctx, srv, "g1")
	wantCount(t, readWire(t, ctx, a), 1, "g1")

	b := dialGroup(t, ctx, srv, "g1")
	wantCount(t, readWire(t, ctx, a), 2, "g1")
	wantCount(t, readWire(t, ctx, b), 2, "g1")

	// Malformed JSON is connection-fatal for B; A sees the count drop
	// promptly. B never answers the close handshake here, so a cleanup path
	// that announces only after the handshake would stall this read.
	if err := b.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	promptCtx, promptCancel := context.WithTimeout(ctx, 2*time.Second)
	defer promptCancel()
	wantCount(t, readWire(t, promptCtx, a), 1, "g1")

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	defer readCancel()
	if _, _, err := b.Read(readCtx); err == nil {
		t.Fatal("expected B's connection to be closed after malformed event")
	}
}

func TestSessionIdleConnectionIsReclaimed(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg := NewRegistry(discardLogger())
	bcast := NewBroadcaster(discardLogger(), reg, nil, time.Second)

	cfg := DefaultGatewayConfig()
	cfg.OriginRequired = false
	cfg.ReadIdle = 200 * time.Millisecond

	gw := NewGateway(discardLogger(), reg, bcast, NewInMemoryStore(), nil, nil, cfg)

	mux := http.NewServeMux()
	mux.Handle("GET /chat/ws/{group}", gw)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	a := dialGroup(t, ctx, srv, "g1")
	wantCount(t, readWire(t, ctx, a), 1, "g1")

	// Send nothing. The server reclaims the silent session well before the
	// default two-minute idle bound.
	readCtx, readCancel := context.WithTimeout(ctx, 3*time.Second)
	defer readCancel()
	if _, _, err := a.Read(readCtx); err == nil {
		t.Fatal("expected the idle session to be closed")
	}

	deadline := time.Now().Add(3 * time.Second)
	for reg.Count("g1") != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("registry count = %d, want 0 after idle reclaim", reg.Count("g1"))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSessionUnknownEventTypeIsIgnored(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := NewInMemoryStore()
	srv := newSessionTestServer(t, store)

	a := dialGroup(t, ctx, srv, "g1")
	wantCount(t, readWire(t, ctx, a), 1, "g1")

	b := dialGroup(t, ctx, srv, "g1")
	wantCount(t, readWire(t, ctx, a), 2, "g1")
	wantCount(t, readWire(t, ctx, b), 2, "g1")

	// Unknown tags are no-ops; the session stays open and a follow-up
	// message still flows.
	sendWire(t, ctx, b, chatv1.InboundEvent{Type: "typing"})
	sendWire(t, ctx, b, chatv1.InboundEvent{Message: "still here"})

	msg := readWire(t, ctx, a)
	if msg["type"] != "message" || msg["message"] != "still here" {
		t.Fatalf("A got unexpected event: %v", msg)
	}
}
