package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"laf/internal/domain/notification"
)

// NotificationStore implements notification.Store on PostgreSQL.
type NotificationStore struct {
	db *pgxpool.Pool
}

// NewNotificationStore creates a new notification store.
func NewNotificationStore(db *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{
		db: db,
	}
}

// Insert appends a notification row.
func (s *NotificationStore) Insert(ctx context.Context, n notification.Notification) (*notification.Notification, error) {
	n.Status = notification.StatusUnread
	err := s.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, content, data, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'unread', now())
		RETURNING id, created_at
	`, n.UserID, n.Type, n.Title, n.Content, n.Data).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error inserting notification: %w", err)
	}

	return &n, nil
}

// ListForUser returns non-deleted notifications, newest first.
func (s *NotificationStore) ListForUser(ctx context.Context, userID int64) ([]notification.Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, type, title, content, data, status, created_at
		FROM notifications
		WHERE user_id = $1 AND status != 'deleted'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var notifications []notification.Notification
	for rows.Next() {
		var n notification.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Content, &n.Data, &n.Status, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead marks one notification read; owner only.
func (s *NotificationStore) MarkRead(ctx context.Context, id, userID int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications
		SET status = 'read'
		WHERE id = $1 AND user_id = $2 AND status != 'deleted'
	`, id, userID)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotFound
	}

	return nil
}

// MarkAllRead marks every unread notification of a user read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications
		SET status = 'read'
		WHERE user_id = $1 AND status = 'unread'
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// Delete soft-deletes one notification; owner only.
func (s *NotificationStore) Delete(ctx context.Context, id, userID int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications
		SET status = 'deleted'
		WHERE id = $1 AND user_id = $2 AND status != 'deleted'
	`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotFound
	}

	return nil
}
