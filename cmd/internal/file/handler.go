package file

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"sharebase/cmd/internal/webapi"
)

const maxBodyBytes = 16 << 10

// Handler wires HTTP file endpoints to the file Service.
type Handler struct {
	log *slog.Logger
	svc *Service
}

// NewHandler constructs a file Handler.
func NewHandler(log *slog.Logger, svc *Service) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, svc: svc}
}

// Register wires file routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /file/upload", h.handleUpload)
	mux.HandleFunc("DELETE /file/delete", h.handleDelete)
	mux.HandleFunc("GET /file/download/{fileId}", h.handleDownload)
	mux.HandleFunc("PATCH /file/pin", h.handlePin)
	mux.HandleFunc("GET /file/list/{groupId}", h.handleList)
	mux.HandleFunc("GET /file/usage/{groupId}", h.handleUsage)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+maxBodyBytes)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	groupID := r.FormValue("groupId")
	userID := r.FormValue("userId")
	part, header, err := r.FormFile("file")
	if err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "missing file field")
		return
	}
	defer func() { _ = part.Close() }()

	if groupID == "" || userID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "groupId and userId are required")
		return
	}

	f, err := h.svc.Upload(r.Context(), UploadInput{
		GroupID:     groupID,
		UploadedBy:  userID,
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     part,
	})
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			webapi.WriteError(w, http.StatusForbidden, "not_member", "user is not a member of this group")
			return
		}
		h.log.Error("file.upload.fail", "group_id", groupID, "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "upload_failed", "failed to upload file")
		return
	}

	webapi.WriteJSON(w, http.StatusCreated, map[string]string{
		"file_id":  f.ID,
		"filename": f.Name,
	})
}

type deleteRequest struct {
	FileID string `json:"file_id"`
	UserID string `json:"userId"`
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := webapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.FileID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "file_id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), req.FileID, req.UserID); err != nil {
		h.writeServiceError(w, "file.delete.fail", req.FileID, err)
		return
	}
	webapi.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s file deleted successfully", req.FileID),
	})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("fileId")
	if fileID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "missing file id")
		return
	}
	userID := r.URL.Query().Get("userId")

	url, f, err := h.svc.DownloadURL(r.Context(), fileID, userID)
	if err != nil {
		h.writeServiceError(w, "file.download.fail", fileID, err)
		return
	}
	webapi.WriteJSON(w, http.StatusOK, map[string]any{
		"url":      url,
		"filename": f.Name,
		"size":     f.Size,
	})
}

type pinRequest struct {
	FileID string `json:"fileId"`
	Pinned bool   `json:"pinned"`
}

func (h *Handler) handlePin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := webapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.FileID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "fileId is required")
		return
	}
	if err := h.svc.Pin(r.Context(), req.FileID, req.Pinned); err != nil {
		h.writeServiceError(w, "file.pin.fail", req.FileID, err)
		return
	}
	webapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "file pin updated successfully"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupId")
	if groupID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "missing group id")
		return
	}
	files, err := h.svc.List(r.Context(), groupID)
	if err != nil {
		h.log.Error("file.list.fail", "group_id", groupID, "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list files")
		return
	}
	if files == nil {
		files = []File{}
	}
	webapi.WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupId")
	if groupID == "" {
		webapi.WriteError(w, http.StatusBadRequest, "bad_request", "missing group id")
		return
	}
	total, err := h.svc.Usage(r.Context(), groupID)
	if err != nil {
		h.log.Error("file.usage.fail", "group_id", groupID, "err", err)
		webapi.WriteError(w, http.StatusInternalServerError, "usage_failed", "failed to compute usage")
		return
	}
	webapi.WriteJSON(w, http.StatusOK, map[string]any{
		"groupId":    groupID,
		"usageBytes": total,
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op, fileID string, err error) {
	if errors.Is(err, ErrNotFound) {
		webapi.WriteError(w, http.StatusNotFound, "not_found", "file not found")
		return
	}
	if errors.Is(err, ErrNotMember) {
		webapi.WriteError(w, http.StatusForbidden, "not_member", "user is not a member of this group")
		return
	}
	h.log.Error(op, "file_id", fileID, "err", err)
	webapi.WriteError(w, http.StatusInternalServerError, "internal", "operation failed")
}
