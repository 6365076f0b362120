package group

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sharebase/cmd/internal/activity"
	"sharebase/cmd/internal/webapi"
)

const maxBodyBytes = 16 << 10

// FilePurger removes every stored file belonging to a group. The file
// service implements it; closing a group must not leave its blobs behind.
type FilePurger interface {
	PurgeGroup(ctx context.Context, groupID string) error
}

// Handler wires HTTP group endpoints to the group store.
type Handler struct {
	log      *slog.Logger
	store    Store
	recorder *activity.Recorder
	feed     activity.Store
	purger   FilePurger
	now      func() time.Time
}

// NewHandler constructs a group Handler. feed may be nil, in which case the
// activity endpoint returns 503. purger may be nil, in which case closing a
// group skips file cleanup.
func NewHandler(log *slog.Logger, store Store, recorder *activity.Recorder, feed activity.Store, purger FilePurger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:      log,
		store:    store,
		recorder: recorder,
		feed:     feed,
		purger:   purger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register wires group routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /group/create", h.handleCreate)
	mux.HandleFunc("DELETE /group/delete/{groupId}", h.handleClose)
	mux.HandleFunc("PATCH /group/rename", h.handleRename)
	mux.HandleFunc("PATCH /group/description", h.handleDescription)
	mux.HandleFunc("PATCH /group/star", h.handleStar)
	mux.HandleFunc("GET /group/list/{userId}", h.handleList)
	mux.HandleFunc("POST /group/member", h.handleAddMember)
	mux.HandleFunc("GET /group/members/{groupId}", h.handleMembers)
	mux.HandleFunc("GET /group/activity/{groupId}", h.handleActivity)
}

type createRequest struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := webapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.UserID == "" || req.Name == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "userId and name are required")
		return
	}

	now := h.now()
	g := Group{
		ID:          NewGroupID(req.Name),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   req.UserID,
		CreatedAt:   now,
	}
	owner := Member{
		UserID:   req.UserID,
		GroupID:  g.ID,
		Role:     RoleOwner,
		JoinedAt: now,
	}

	if err := h.store.Create(r.Context(), g, owner); err != nil {
		h.log.Error("group.create.fail", "group_id", g.ID, "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create group")
		return
	}

	h.recorder.Record(r.Context(), activity.Activity{
		UserID:  req.UserID,
		GroupID: g.ID,
		Type:    activity.GroupCreated,
	})

	webapi.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Group created successfully",
		"groupId": g.ID,
	})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupId")
	if groupID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "missing group id")
		return
	}
	userID := r.URL.Query().Get("userId")

	if _, err := h.store.Get(r.Context(), groupID); err != nil {
		h.writeStoreError(w, "group.close.fail", groupID, err)
		return
	}

	// Purge stored files first so a failure leaves the group intact and
	// the close retryable.
	if h.purger != nil {
		if err := h.purger.PurgeGroup(r.Context(), groupID); err != nil {
			h.log.Error("group.close.purge.fail", "group_id", groupID, "err", err)
			webapi.WriteError(w, http.StatusInternalServerError, "close_failed", "failed to remove group files")
			return
		}
	}

	if err := h.store.Delete(r.Context(), groupID); err != nil {
		h.writeStoreError(w, "group.close.fail", groupID, err)
		return
	}

	h.recorder.Record(r.Context(), activity.Activity{
		UserID:  userID,
		GroupID: groupID,
		Type:    activity.GroupClosed,
	})

	webapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "group deleted successfully"})
}

type modifyRequest struct {
	UserID     string `json:"userId"`
	GroupID    string `json:"groupId"`
	NewContent string `json:"newContent"`
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeModify(w, r)
	if !ok {
		return
	}
	if err := h.store.Rename(r.Context(), req.GroupID, req.NewContent); err != nil {
		h.writeStoreError(w, "group.rename.fail", req.GroupID, err)
		return
	}
	h.recorder.Record(r.Context(), activity.Activity{
		UserID:  req.UserID,
		GroupID: req.GroupID,
		Type:    activity.GroupRenamed,
	})
	webapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "group name changed successfully"})
}

func (h *Handler) handleDescription(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeModify(w, r)
	if !ok {
		return
	}
	if err := h.store.SetDescription(r.Context(), req.GroupID, req.NewContent); err != nil {
		h.writeStoreError(w, "group.description.fail", req.GroupID, err)
		return
	}
	h.recorder.Record(r.Context(), activity.Activity{
		UserID:  req.UserID,
		GroupID: req.GroupID,
		Type:    activity.GroupDescriptionChanged,
	})
	webapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "group description changed successfully"})
}

func (h *Handler) decodeModify(w http.ResponseWriter, r *http.Request) (modifyRequest, bool) {
	var req modifyRequest
	if err := webapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return modifyRequest{}, false
	}
	req.NewContent = strings.TrimSpace(req.NewContent)
	if req.UserID == "" || req.GroupID == "" || req.NewContent == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "userId, groupId and newContent are required")
		return modifyRequest{}, false
	}
	return req, true
}

type starRequest struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
	Starred bool   `json:"starred"`
}

func (h *Handler) handleStar(w http.ResponseWriter, r *http.Request) {
	var req starRequest
	if err := webapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.UserID == "" || req.GroupID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "userId and groupId are required")
		return
	}
	if err := h.store.SetStarred(r.Context(), req.GroupID, req.Starred); err != nil {
		h.writeStoreError(w, "group.star.fail", req.GroupID, err)
		return
	}
	webapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "group star updated successfully"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "missing user id")
		return
	}
	groups, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		h.log.Error("group.list.fail", "user_id", userID, "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list groups")
		return
	}
	if groups == nil {
		groups = []Group{}
	}
	webapi.WriteJSON(w, http.StatusOK, groups)
}

type addMemberRequest struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := webapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.UserID == "" || req.GroupID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "userId and groupId are required")
		return
	}
	m := Member{
		UserID:   req.UserID,
		GroupID:  req.GroupID,
		Role:     RoleMember,
		JoinedAt: h.now(),
	}
	if err := h.store.AddMember(r.Context(), m); err != nil {
		h.writeStoreError(w, "group.member.add.fail", req.GroupID, err)
		return
	}
	webapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "member added successfully"})
}

func (h *Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupId")
	if groupID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "missing group id")
		return
	}
	members, err := h.store.Members(r.Context(), groupID)
	if err != nil {
		h.writeStoreError(w, "group.members.fail", groupID, err)
		return
	}
	if members == nil {
		members = []Member{}
	}
	webapi.WriteJSON(w, http.StatusOK, members)
}

// activityItem is one rendered activity feed entry.
type activityItem struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
	Type    string `json:"activityType"`
	FileID  string `json:"fileId,omitempty"`
	When    string `json:"when"`
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		webapi.WriteError(w, http.StatusServiceUnavailable, "unavailable", "activity feed is not available")
		return
	}
	groupID := r.PathValue("groupId")
	if groupID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "missing group id")
		return
	}
	recs, err := h.feed.Recent(r.Context(), groupID, 0)
	if err != nil {
		h.log.Error("group.activity.fail", "group_id", groupID, "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "activity_failed", "failed to load activity")
		return
	}

	now := h.now()
	items := make([]activityItem, 0, len(recs))
	for _, a := range recs {
		items = append(items, activityItem{
			ID:      a.ID,
			UserID:  a.UserID,
			GroupID: a.GroupID,
			Type:    string(a.Type),
			FileID:  a.FileID,
			When:    activity.TimeAgo(now, a.Timestamp),
		})
	}
	webapi.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op, groupID string, err error) {
	if errors.Is(err, ErrNotFound) {
		webapi.WriteError(w, http.StatusNotFound, "not_found", "group not found")
		return
	}
	h.log.Error(op, "group_id", groupID, "err", err)
	webapi.WriteError(w, http.StatusInternalServerError, "internal", "operation failed")
}
