// Package notification defines durable per-user notifications. Rows are
// written by the notify dispatcher and read on poll; real-time push is
// out of scope.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Type classifies a notification.
type Type string

const (
	TypeNewMessage   Type = "new_message"
	TypeItemResolved Type = "item_resolved"
	TypeSystem       Type = "system"
)

// Status is the lifecycle of a notification row.
type Status string

const (
	StatusUnread  Status = "unread"
	StatusRead    Status = "read"
	StatusDeleted Status = "deleted"
)

// Notification is one row of a user's notification feed. Data carries a
// type-specific JSON payload (conversation id, item id, ...).
type Notification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"-"`
	Type      Type            `json:"type"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Data      json.RawMessage `json:"data,omitempty"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ErrNotFound is returned when a notification does not exist or belongs
// to another user.
var ErrNotFound = errors.New("notification not found")

// Store is the persistence contract for notifications.
type Store interface {
	// Insert appends a notification for a user.
	Insert(ctx context.Context, n Notification) (*Notification, error)

	// ListForUser returns non-deleted notifications, newest first.
	ListForUser(ctx context.Context, userID int64) ([]Notification, error)

	// MarkRead marks one notification read; owner only.
	MarkRead(ctx context.Context, id, userID int64) error

	// MarkAllRead marks every unread notification of a user read and
	// returns the number of rows changed.
	MarkAllRead(ctx context.Context, userID int64) (int, error)

	// Delete soft-deletes one notification; owner only.
	Delete(ctx context.Context, id, userID int64) error
}
