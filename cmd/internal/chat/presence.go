package chat

import (
	"context"
	"log/slog"
	"net/http"

	chatv1 "sharebase/shared/contracts/chat/v1"

	"sharebase/cmd/internal/webapi"
)

// AnnouncePresence reads the live member count and broadcasts it to the whole
// group (no exclusion). It runs as the last step of register, identify, and
// deregister flows so the published count reflects the post-mutation state.
func (b *Broadcaster) AnnouncePresence(ctx context.Context, groupID string) {
	ev := chatv1.NewOnlineCountEvent(groupID, b.reg.Count(groupID))
	_ = b.Broadcast(ctx, groupID, ev, nil)
}

// PresenceHandler serves the presence read endpoint:
// GET /chat/presence/{group} -> {"online": <int>, "group_id": <id>}.
type PresenceHandler struct {
	log *slog.Logger
	reg *Registry
}

// NewPresenceHandler constructs a PresenceHandler over the registry.
func NewPresenceHandler(log *slog.Logger, reg *Registry) *PresenceHandler {
	return &PresenceHandler{log: log, reg: reg}
}

func (h *PresenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("group")
	if groupID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "missing_group", "missing group id")
		return
	}

	webapi.WriteJSON(w, http.StatusOK, chatv1.PresenceResponse{
		Online:  h.reg.Count(groupID),
		GroupID: groupID,
	})
}
