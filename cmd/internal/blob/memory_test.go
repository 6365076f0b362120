package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewInMemoryStore()

	if err := s.Put(ctx, "groups/g1/files/a", strings.NewReader("hello"), 5, "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, err := s.Get(ctx, "groups/g1/files/a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(data) != "hello" {
		t.Fatalf("read = %q, %v", data, err)
	}

	url, err := s.PresignGet(ctx, "groups/g1/files/a", time.Minute)
	if err != nil || url == "" {
		t.Fatalf("PresignGet = %q, %v", url, err)
	}

	if err := s.Delete(ctx, "groups/g1/files/a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "groups/g1/files/a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestInMemoryStoreDeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewInMemoryStore()

	for _, key := range []string{"groups/g1/files/a", "groups/g1/files/b", "groups/g2/files/c"} {
		if err := s.Put(ctx, key, strings.NewReader("x"), 1, ""); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	if err := s.DeletePrefix(ctx, "groups/g1/"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if got := s.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
	if _, err := s.Get(ctx, "groups/g2/files/c"); err != nil {
		t.Fatalf("unrelated object removed: %v", err)
	}
}
