package chat

import (
	"context"
	"testing"
	"time"

	chatv1 "sharebase/shared/contracts/chat/v1"
)

func newTestBroadcaster(r *Registry) *Broadcaster {
	return NewBroadcaster(discardLogger(), r, nil, time.Second)
}

func TestBroadcastDeliversToAllMembers(t *testing.T) {
	t.Parallel()

	r := NewRegistry(discardLogger())
	b := newTestBroadcaster(r)

	links := []*fakeLink{{}, {}, {}}
	for _, l := range links {
		r.Register("g1", NewConn("g1", l))
	}

	ev := chatv1.NewOnlineCountEvent("g1", 3)
	if err := b.Broadcast(context.Background(), "g1", ev, nil); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	for i, l := range links {
		got := l.events(t)
		if len(got) != 1 {
			t.Fatalf("link %d received %d events, want 1", i, len(got))
		}
		if got[0]["type"] != "online_count" || got[0]["group_id"] != "g1" {
			t.Fatalf("link %d got unexpected event: %v", i, got[0])
		}
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	t.Parallel()

	r := NewRegistry(discardLogger())
	b := newTestBroadcaster(r)

	sender := &fakeLink{}
	other := &fakeLink{}
	senderConn := NewConn("g1", sender)
	r.Register("g1", senderConn)
	r.Register("g1", NewConn("g1", other))

	ev := chatv1.MessageEvent{Type: chatv1.TypeMessage, Message: "hi", GroupID: "g1"}
	if err := b.Broadcast(context.Background(), "g1", ev, senderConn); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	if got := len(sender.events(t)); got != 0 {
		t.Fatalf("sender received %d events, want 0 (no self echo)", got)
	}
	if got := len(other.events(t)); got != 1 {
		t.Fatalf("other received %d events, want 1", got)
	}
}

func TestBroadcastPrunesFailingConnection(t *testing.T) {
	t.Parallel()

	r := NewRegistry(discardLogger())
	b := newTestBroadcaster(r)

	healthy := []*fakeLink{{}, {}}
	broken := &fakeLink{fail: true}

	for _, l := range healthy {
		r.Register("g1", NewConn("g1", l))
	}
	r.Register("g1", NewConn("g1", broken))

	ev := chatv1.MessageEvent{Type: chatv1.TypeMessage, Message: "hi", GroupID: "g1"}
	if err := b.Broadcast(context.Background(), "g1", ev, nil); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	if got := r.Count("g1"); got != 2 {
		t.Fatalf("count after prune=%d want=2", got)
	}
	if !broken.closed {
		t.Fatal("failing link was not closed")
	}

	// Healthy members got the message and then the post-prune presence count.
	for i, l := range healthy {
		got := l.events(t)
		if len(got) != 2 {
			t.Fatalf("link %d received %d events, want 2", i, len(got))
		}
		if got[0]["type"] != "message" {
			t.Fatalf("link %d first event=%v want message", i, got[0]["type"])
		}
		if got[1]["type"] != "online_count" || got[1]["count"] != float64(2) {
			t.Fatalf("link %d second event=%v want online_count count=2", i, got[1])
		}
	}
}

func TestAnnouncePresence(t *testing.T) {
	t.Parallel()

	r := NewRegistry(discardLogger())
	b := newTestBroadcaster(r)

	l1 := &fakeLink{}
	l2 := &fakeLink{}
	r.Register("g1", NewConn("g1", l1))
	r.Register("g1", NewConn("g1", l2))

	b.AnnouncePresence(context.Background(), "g1")

	for i, l := range []*fakeLink{l1, l2} {
		got := l.events(t)
		if len(got) != 1 {
			t.Fatalf("link %d received %d events, want 1", i, len(got))
		}
		if got[0]["type"] != "online_count" || got[0]["count"] != float64(2) || got[0]["group_id"] != "g1" {
			t.Fatalf("link %d got unexpected presence event: %v", i, got[0])
		}
	}
}

func TestBroadcastUnrelatedGroupUntouched(t *testing.T) {
	t.Parallel()

	r := NewRegistry(discardLogger())
	b := newTestBroadcaster(r)

	other := &fakeLink{}
	r.Register("g2", NewConn("g2", other))

	ev := chatv1.NewOnlineCountEvent("g1", 0)
	if err := b.Broadcast(context.Background(), "g1", ev, nil); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	if got := len(other.events(t)); got != 0 {
		t.Fatalf("unrelated group received %d events, want 0", got)
	}
}
