package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chatv1 "sharebase/shared/contracts/chat/v1"
)

func historyMux(h *HistoryHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /chat/history/{group}", h)
	return mux
}

func TestHistoryReturnsAtMost100OldestFirst(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	base := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		_, err := store.Insert(context.Background(), InsertMessageInput{
			GroupID:    "g1",
			SenderID:   "u1",
			SenderName: "Alice",
			Text:       fmt.Sprintf("msg-%03d", i),
			Now:        base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	h := NewHistoryHandler(discardLogger(), store, nil)

	rec := httptest.NewRecorder()
	historyMux(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/history/g1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}

	var items []chatv1.HistoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(items) != 100 {
		t.Fatalf("returned %d items, want 100", len(items))
	}
	// The newest 100 of 150, oldest-first: msg-050 .. msg-149.
	if items[0].Message != "msg-050" {
		t.Fatalf("first item=%q want=msg-050", items[0].Message)
	}
	if items[99].Message != "msg-149" {
		t.Fatalf("last item=%q want=msg-149", items[99].Message)
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Timestamp > items[i].Timestamp {
			t.Fatalf("items out of order at %d: %q > %q", i, items[i-1].Timestamp, items[i].Timestamp)
		}
	}
}

func TestHistoryAnonymousFallback(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	if _, err := store.Insert(context.Background(), InsertMessageInput{
		GroupID: "g1",
		Text:    "no sender recorded",
		Now:     time.Now().UTC(),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	h := NewHistoryHandler(discardLogger(), store, nil)

	rec := httptest.NewRecorder()
	historyMux(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/history/g1", nil))

	var items []chatv1.HistoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("returned %d items, want 1", len(items))
	}
	if items[0].User != "anonymous" || items[0].Username != "Anonymous" {
		t.Fatalf("sender=(%q,%q) want anonymous fallback", items[0].User, items[0].Username)
	}
}

func TestHistoryEmptyGroupIsEmptyArray(t *testing.T) {
	t.Parallel()

	h := NewHistoryHandler(discardLogger(), NewInMemoryStore(), nil)

	rec := httptest.NewRecorder()
	historyMux(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/history/unknown", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}
	var items []chatv1.HistoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("returned %d items, want 0", len(items))
	}
}

func TestHistoryStoreFailureIsServerError(t *testing.T) {
	t.Parallel()

	h := NewHistoryHandler(discardLogger(), failingStore{}, nil)

	rec := httptest.NewRecorder()
	historyMux(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/history/g1", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want=500", rec.Code)
	}
}

func TestPresenceEndpoint(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(discardLogger())
	reg.Register("g1", NewConn("g1", &fakeLink{}))
	reg.Register("g1", NewConn("g1", &fakeLink{}))

	mux := http.NewServeMux()
	mux.Handle("GET /chat/presence/{group}", NewPresenceHandler(discardLogger(), reg))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/presence/g1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}
	var resp chatv1.PresenceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Online != 2 || resp.GroupID != "g1" {
		t.Fatalf("resp=%+v want online=2 group_id=g1", resp)
	}
}
