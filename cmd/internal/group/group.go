// Package group manages sharebase groups and their memberships.
package group

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a group does not exist.
var ErrNotFound = errors.New("group: not found")

// Role names for group members.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Group is one collaboration group.
type Group struct {
	ID          string    `json:"groupId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	Starred     bool      `json:"starred"`

	// MemberCount is populated by ListByUser only.
	MemberCount int `json:"memberCount,omitempty"`
}

// Member links a user to a group.
type Member struct {
	UserID   string    `json:"userId"`
	GroupID  string    `json:"groupId"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Store persists groups and memberships.
type Store interface {
	// Create inserts the group and its owner membership atomically.
	Create(ctx context.Context, g Group, owner Member) error
	Get(ctx context.Context, groupID string) (Group, error)
	// Delete removes the group and all of its memberships.
	Delete(ctx context.Context, groupID string) error
	Rename(ctx context.Context, groupID, name string) error
	SetDescription(ctx context.Context, groupID, description string) error
	SetStarred(ctx context.Context, groupID string, starred bool) error
	ListByUser(ctx context.Context, userID string) ([]Group, error)
	AddMember(ctx context.Context, m Member) error
	Members(ctx context.Context, groupID string) ([]Member, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// NewGroupID derives a group id from the group name plus a random suffix.
// Spaces collapse to underscores so the id stays URL- and log-friendly.
func NewGroupID(name string) string {
	base := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
