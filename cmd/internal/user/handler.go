package user

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sharebase/cmd/internal/webapi"
	"sharebase/cmd/security/password"
)

const maxBodyBytes = 16 << 10

// Handler wires HTTP account endpoints to the user store.
type Handler struct {
	log   *slog.Logger
	store Store
	pwd   password.Config
	now   func() time.Time
}

// NewHandler constructs a user Handler.
func NewHandler(log *slog.Logger, store Store, pwd password.Config) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:   log,
		store: store,
		pwd:   pwd,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Register wires user routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /user/register", h.handleRegister)
	mux.HandleFunc("POST /user/login", h.handleLogin)
	mux.HandleFunc("GET /user/searchuser/{username}", h.handleSearch)
}

type registerRequest struct {
	Name     string `json:"name"`
	Password string `json:"pwd"`
	Email    string `json:"email"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := webapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "name and email are required")
		return
	}
	if err := h.pwd.Validate(req.Password); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "invalid_password", err.Error())
		return
	}

	id, err := GenerateID(r.Context(), h.store, req.Name)
	if err != nil {
		h.log.Error("user.register.id.fail", "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "register_failed", "failed to register user")
		return
	}

	hash, err := h.pwd.Hash(req.Password)
	if err != nil {
		h.log.Error("user.register.hash.fail", "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "register_failed", "failed to register user")
		return
	}

	now := h.now()
	u := User{
		ID:           id,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := h.store.Insert(r.Context(), u); err != nil {
		h.log.Error("user.register.fail", "user_id", id, "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "register_failed", "failed to register user")
		return
	}

	webapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"userId":  id,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"pwd"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := webapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	u, err := h.store.GetByName(r.Context(), req.Username)
	if errors.Is(err, ErrNotFound) {
		webapi.WriteJSON(w, http.StatusOK, loginResponse{Success: false, Message: "User not found"})
		return
	}
	if err != nil {
		h.log.Error("user.login.lookup.fail", "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "login_failed", "failed to log in")
		return
	}

	ok, err := h.pwd.Verify(u.PasswordHash, req.Password)
	if err != nil || !ok {
		webapi.WriteJSON(w, http.StatusOK, loginResponse{Success: false, Message: "Password does not match"})
		return
	}

	if err := h.store.UpdateLastAccessed(r.Context(), u.ID, h.now()); err != nil {
		// Login still succeeds; the timestamp is informational.
		h.log.Error("user.login.touch.fail", "user_id", u.ID, "err", err)
	}

	webapi.WriteJSON(w, http.StatusOK, loginResponse{Success: true, Message: "Login successful", UserID: u.ID})
}

// searchResult is the wire shape of one user directory match.
type searchResult struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.PathValue("username")
	if q == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "missing username")
		return
	}

	users, err := h.store.Search(r.Context(), q, 10)
	if err != nil {
		h.log.Error("user.search.fail", "q", q, "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "search_failed", "failed to search users")
		return
	}

	results := make([]searchResult, 0, len(users))
	for _, u := range users {
		results = append(results, searchResult{UserID: u.ID, Username: u.Name})
	}
	webapi.WriteJSON(w, http.StatusOK, results)
}
