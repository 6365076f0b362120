// Package file manages shared file metadata and content within a group.
package file

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a file record does not exist.
var ErrNotFound = errors.New("file: not found")

// ErrNotMember is returned when the acting user does not belong to the
// file's group.
var ErrNotMember = errors.New("file: user is not a group member")

// MembershipChecker reports whether a user belongs to a group. The group
// store satisfies it.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// File is the metadata record for one shared file.
type File struct {
	ID          string    `json:"fileId"`
	GroupID     string    `json:"groupId"`
	Name        string    `json:"filename"`
	UploadedBy  string    `json:"uploadedBy"`
	UploadedAt  time.Time `json:"uploadedAt"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	BlobKey     string    `json:"-"`
	Pinned      bool      `json:"pinned"`
}

// Store persists file metadata.
type Store interface {
	Insert(ctx context.Context, f File) error
	Get(ctx context.Context, fileID string) (File, error)
	Delete(ctx context.Context, fileID string) error
	SetPinned(ctx context.Context, fileID string, pinned bool) error
	ListByGroup(ctx context.Context, groupID string) ([]File, error)
	// UsageBytes sums the stored sizes for a group.
	UsageBytes(ctx context.Context, groupID string) (int64, error)
}
