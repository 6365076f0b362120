package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"sharebase/cmd/internal/activity"
	"sharebase/cmd/internal/blob"
	"sharebase/cmd/internal/ids"
)

const (
	// maxUploadBytes caps one uploaded file.
	maxUploadBytes = 100 << 20

	defaultPresignTTL = 15 * time.Minute
)

// UploadInput describes one incoming file.
type UploadInput struct {
	GroupID     string
	UploadedBy  string
	Name        string
	ContentType string
	Size        int64 // -1 if unknown
	Content     io.Reader
}

// Service coordinates the metadata store and the blob store so the two
// never drift: content is written first, and orphaned blobs are removed
// when the metadata insert fails.
type Service struct {
	log        *slog.Logger
	store      Store
	blobs      blob.Store
	recorder   *activity.Recorder
	members    MembershipChecker
	presignTTL time.Duration
	now        func() time.Time
}

// NewService constructs a file Service. members may be nil, in which case
// group membership is not enforced.
func NewService(log *slog.Logger, store Store, blobs blob.Store, recorder *activity.Recorder, members MembershipChecker) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		log:        log,
		store:      store,
		blobs:      blobs,
		recorder:   recorder,
		members:    members,
		presignTTL: defaultPresignTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// checkMember enforces group membership for the acting user. An empty
// userID skips the check; the HTTP surface does not authenticate users.
func (s *Service) checkMember(ctx context.Context, groupID, userID string) error {
	if s.members == nil || userID == "" {
		return nil
	}
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// Upload stores the file content and its metadata record.
func (s *Service) Upload(ctx context.Context, in UploadInput) (File, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.GroupID == "" || in.UploadedBy == "" || in.Name == "" || in.Content == nil {
		return File{}, errors.New("file: invalid upload input")
	}
	if in.Size > maxUploadBytes {
		return File{}, fmt.Errorf("file: %d bytes exceeds the %d byte limit", in.Size, maxUploadBytes)
	}
	if err := s.checkMember(ctx, in.GroupID, in.UploadedBy); err != nil {
		return File{}, err
	}

	now := s.now()
	id, err := ids.NewULID(now)
	if err != nil {
		return File{}, err
	}
	key := blobKey(in.GroupID, id)

	// Bound the reader even when the declared size is unknown or wrong.
	content := io.LimitReader(in.Content, maxUploadBytes+1)
	counted := &countingReader{r: content}

	if err := s.blobs.Put(ctx, key, counted, in.Size, in.ContentType); err != nil {
		return File{}, err
	}
	if counted.n > maxUploadBytes {
		_ = s.blobs.Delete(context.WithoutCancel(ctx), key)
		return File{}, fmt.Errorf("file: upload exceeds the %d byte limit", int64(maxUploadBytes))
	}

	f := File{
		ID:          id,
		GroupID:     in.GroupID,
		Name:        in.Name,
		UploadedBy:  in.UploadedBy,
		UploadedAt:  now,
		Size:        counted.n,
		ContentType: in.ContentType,
		BlobKey:     key,
	}
	if err := s.store.Insert(ctx, f); err != nil {
		// Remove the orphaned blob; the context may already be canceled.
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.log.Error("file.upload.orphan", "blob_key", key, "err", derr)
		}
		return File{}, err
	}

	s.recorder.Record(ctx, activity.Activity{
		UserID:  in.UploadedBy,
		GroupID: in.GroupID,
		Type:    activity.FileUploaded,
		FileID:  id,
	})
	return f, nil
}

// DownloadURL returns a presigned URL for the file and records the download.
func (s *Service) DownloadURL(ctx context.Context, fileID, userID string) (string, File, error) {
	f, err := s.store.Get(ctx, fileID)
	if err != nil {
		return "", File{}, err
	}
	if err := s.checkMember(ctx, f.GroupID, userID); err != nil {
		return "", File{}, err
	}
	url, err := s.blobs.PresignGet(ctx, f.BlobKey, s.presignTTL)
	if err != nil {
		return "", File{}, err
	}
	s.recorder.Record(ctx, activity.Activity{
		UserID:  userID,
		GroupID: f.GroupID,
		Type:    activity.FileDownloaded,
		FileID:  f.ID,
	})
	return url, f, nil
}

// Delete removes the metadata record first, then the blob. A blob left
// behind after a crash is invisible and harmless; a dangling metadata row
// would not be.
func (s *Service) Delete(ctx context.Context, fileID, userID string) error {
	f, err := s.store.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if err := s.checkMember(ctx, f.GroupID, userID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, fileID); err != nil {
		return err
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), f.BlobKey); err != nil {
		s.log.Error("file.delete.blob", "blob_key", f.BlobKey, "err", err)
	}

	s.recorder.Record(ctx, activity.Activity{
		UserID:  userID,
		GroupID: f.GroupID,
		Type:    activity.FileDeleted,
		FileID:  f.ID,
	})
	return nil
}

// PurgeGroup removes every file in the group when the group is closed.
// Metadata rows go first, then all blobs under the group's key prefix in
// one sweep; a blob left behind after a crash is invisible and harmless.
func (s *Service) PurgeGroup(ctx context.Context, groupID string) error {
	files, err := s.store.ListByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := s.store.Delete(ctx, f.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	if err := s.blobs.DeletePrefix(context.WithoutCancel(ctx), groupPrefix(groupID)); err != nil {
		s.log.Error("file.purge.blobs", "group_id", groupID, "err", err)
	}
	return nil
}

// Pin marks or unmarks a file as pinned in its group listing.
func (s *Service) Pin(ctx context.Context, fileID string, pinned bool) error {
	return s.store.SetPinned(ctx, fileID, pinned)
}

// List returns the group's files, pinned first, then newest-first.
func (s *Service) List(ctx context.Context, groupID string) ([]File, error) {
	return s.store.ListByGroup(ctx, groupID)
}

// Usage returns the total stored bytes for a group.
func (s *Service) Usage(ctx context.Context, groupID string) (int64, error) {
	return s.store.UsageBytes(ctx, groupID)
}

func blobKey(groupID, fileID string) string {
	return groupPrefix(groupID) + "files/" + fileID
}

func groupPrefix(groupID string) string {
	return "groups/" + groupID + "/"
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
