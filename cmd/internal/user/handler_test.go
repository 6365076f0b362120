package user

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sharebase/cmd/security/password"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testPasswordConfig keeps Argon2id cheap so the suite stays fast.
func testPasswordConfig() password.Config {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	return cfg
}

func newTestMux(t *testing.T) (*http.ServeMux, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	mux := http.NewServeMux()
	NewHandler(discardLogger(), store, testPasswordConfig()).Register(mux)
	return mux, store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	mux, store := newTestMux(t)

	w := doJSON(t, mux, http.MethodPost, "/user/register", map[string]string{
		"name":  "Alice Smith",
		"pwd":   "correct horse battery",
		"email": "alice@example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d (body %s)", w.Code, w.Body.String())
	}
	var reg struct {
		Success bool   `json:"success"`
		UserID  string `json:"userId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	if !reg.Success || reg.UserID == "" {
		t.Fatalf("unexpected register response: %+v", reg)
	}

	u, err := store.GetByID(context.Background(), reg.UserID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "correct horse battery" {
		t.Fatal("password must be stored hashed")
	}

	w = doJSON(t, mux, http.MethodPost, "/user/login", map[string]string{
		"username": "Alice Smith",
		"pwd":      "correct horse battery",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d (body %s)", w.Code, w.Body.String())
	}
	var login loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if !login.Success || login.UserID != reg.UserID {
		t.Fatalf("unexpected login response: %+v", login)
	}

	u, err = store.GetByID(context.Background(), reg.UserID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.LastAccessed.IsZero() {
		t.Fatal("lastAccessed not updated")
	}
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)

	w := doJSON(t, mux, http.MethodPost, "/user/register", map[string]string{
		"name":  "Bob Jones",
		"pwd":   "another good passphrase",
		"email": "bob@example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	tests := []struct {
		name     string
		username string
		pwd      string
		wantMsg  string
	}{
		{name: "unknown user", username: "nobody", pwd: "whatever passphrase", wantMsg: "User not found"},
		{name: "wrong password", username: "Bob Jones", pwd: "not the passphrase!", wantMsg: "Password does not match"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := doJSON(t, mux, http.MethodPost, "/user/login", map[string]string{
				"username": tc.username,
				"pwd":      tc.pwd,
			})
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			var resp loginResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success || resp.Message != tc.wantMsg {
				t.Fatalf("response = %+v, want message %q", resp, tc.wantMsg)
			}
		})
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)

	w := doJSON(t, mux, http.MethodPost, "/user/register", map[string]string{
		"name":  "Eve",
		"pwd":   "short",
		"email": "eve@example.com",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSearchRanksPrefixMatchesFirst(t *testing.T) {
	t.Parallel()

	mux, store := newTestMux(t)
	now := time.Now().UTC()
	for _, name := range []string{"maria", "anna-maria", "mark", "joanna"} {
		err := store.Insert(context.Background(), User{
			ID:        name + "00001",
			Name:      name,
			Email:     name + "@example.com",
			CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("Insert %s: %v", name, err)
		}
	}

	w := doJSON(t, mux, http.MethodGet, "/user/searchuser/mar", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var results []searchResult
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %+v, want 3", results)
	}
	// Prefix matches (maria, mark) come before the substring match.
	if results[0].Username != "maria" || results[1].Username != "mark" {
		t.Fatalf("unexpected order: %+v", results)
	}
	if results[2].Username != "anna-maria" {
		t.Fatalf("unexpected tail: %+v", results)
	}
}

func TestGenerateIDAvoidsCollisions(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()

	id, err := GenerateID(ctx, store, "Jane Doe")
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	const prefix = "jane_doe"
	if len(id) != len(prefix)+5 || id[:len(prefix)] != prefix {
		t.Fatalf("id = %q, want %q plus 5 digits", id, prefix)
	}
	for _, c := range id[len(prefix):] {
		if c < '0' || c > '9' {
			t.Fatalf("suffix of %q is not numeric", id)
		}
	}

	if err := store.Insert(ctx, User{ID: id, Name: "Jane Doe"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	next, err := GenerateID(ctx, store, "Jane Doe")
	if err != nil {
		t.Fatalf("GenerateID second: %v", err)
	}
	if next == id {
		t.Fatalf("second id %q collides with first", next)
	}
}
