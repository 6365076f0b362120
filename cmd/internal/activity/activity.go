// Package activity records and serves the append-only activity history of a group.
package activity

import (
	"context"
	"log/slog"
	"time"
)

// Type enumerates the recorded activity kinds.
type Type string

const (
	GroupCreated            Type = "GROUP_CREATED"
	GroupRenamed            Type = "GROUP_RENAMED"
	GroupDescriptionChanged Type = "GROUP_DESCRIPTION_CHANGED"
	GroupClosed             Type = "GROUP_CLOSED"
	FileUploaded            Type = "FILE_UPLOADED"
	FileDeleted             Type = "FILE_DELETED"
	FileDownloaded          Type = "FILE_DOWNLOADED"
)

// Activity is one immutable history record.
type Activity struct {
	ID        string
	UserID    string
	GroupID   string
	Type      Type
	FileID    string // empty unless the activity concerns a file
	Timestamp time.Time
}

// Store persists activity records.
type Store interface {
	Record(ctx context.Context, a Activity) error
	Recent(ctx context.Context, groupID string, limit int) ([]Activity, error)
}

// Recorder wraps a Store with best-effort semantics: activity logging must
// never fail the operation it describes, so errors are logged and swallowed.
type Recorder struct {
	log   *slog.Logger
	store Store
}

// NewRecorder constructs a Recorder. A nil store disables recording.
func NewRecorder(log *slog.Logger, store Store) *Recorder {
	return &Recorder{log: log, store: store}
}

// Record persists one activity, logging instead of propagating failures.
func (r *Recorder) Record(ctx context.Context, a Activity) {
	if r == nil || r.store == nil {
		return
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	if err := r.store.Record(ctx, a); err != nil {
		r.log.Error("activity.record.fail",
			"group_id", a.GroupID, "user_id", a.UserID, "type", string(a.Type), "err", err)
	}
}
