package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	chatv1 "sharebase/shared/contracts/chat/v1"

	"sharebase/cmd/internal/webapi"
)

// HistoryHandler serves the history read endpoint:
// GET /chat/history/{group} -> up to 100 messages, oldest-first.
//
// Missing denormalized sender names fall back to "Anonymous" rather than
// failing the whole request.
type HistoryHandler struct {
	log   *slog.Logger
	store MessageStore
	cache RecentCache
}

// NewHistoryHandler constructs a HistoryHandler. cache may be nil.
func NewHistoryHandler(log *slog.Logger, store MessageStore, cache RecentCache) *HistoryHandler {
	return &HistoryHandler{log: log, store: store, cache: cache}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("group")
	if groupID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "missing_group", "missing group id")
		return
	}

	msgs, err := h.recent(r.Context(), groupID)
	if err != nil {
		h.log.Error("chat.history.fail", "group_id", groupID, "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "history_failed", "could not load history")
		return
	}

	// Store order is newest-first; the endpoint contract is oldest-first.
	items := make([]chatv1.HistoryItem, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]

		user := m.SenderID
		if user == "" {
			user = anonymousUserID
		}
		username := m.SenderName
		if username == "" {
			username = anonymousUsername
		}

		items = append(items, chatv1.HistoryItem{
			ID:        m.ID,
			User:      user,
			Username:  username,
			Message:   m.Text,
			Timestamp: chatv1.FormatTimestamp(m.SentAt),
		})
	}

	webapi.WriteJSON(w, http.StatusOK, items)
}

func (h *HistoryHandler) recent(ctx context.Context, groupID string) ([]StoredMessage, error) {
	if h.cache != nil {
		msgs, err := h.cache.Get(ctx, groupID)
		if err == nil {
			return msgs, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			h.log.Info("chat.history.cache.fail", "group_id", groupID, "err", err)
		}
	}

	msgs, err := h.store.Recent(ctx, groupID, historyLimit)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, groupID, msgs); err != nil {
			h.log.Info("chat.history.cache.set.fail", "group_id", groupID, "err", err)
		}
	}
	return msgs, nil
}
