package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"laf/internal/domain/message"
)

// MessageStore implements message.MessageStore on PostgreSQL.
type MessageStore struct {
	db *pgxpool.Pool
}

// NewMessageStore creates a new message store.
func NewMessageStore(db *pgxpool.Pool) *MessageStore {
	return &MessageStore{
		db: db,
	}
}

// Insert appends a message. The id and created_at are server-assigned;
// ordering within a conversation is (created_at, id).
func (s *MessageStore) Insert(ctx context.Context, m message.Message) (*message.Message, error) {
	if m.Type == "" {
		m.Type = message.TypeText
	}
	m.Status = message.StatusUnread

	err := s.db.QueryRow(ctx, `
		INSERT INTO messages (
			conversation_id, from_user_id, to_user_id, content,
			message_type, status, reply_to_id, created_at
		) VALUES ($1, $2, $3, $4, $5, 'unread', $6, now())
		RETURNING id, created_at
	`,
		m.ConversationID, m.FromUserID, m.ToUserID, m.Content, m.Type, m.ReplyToID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error inserting message: %w", err)
	}

	return &m, nil
}

// ListByConversation returns one page of the log in chronological
// ascending order together with the total count.
func (s *MessageStore) ListByConversation(ctx context.Context, conversationID int64, limit, offset int) ([]message.Message, int, error) {
	var total int
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM messages
		WHERE conversation_id = $1 AND status != 'deleted'
	`, conversationID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting messages: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, from_user_id, to_user_id, content,
		       message_type, status, reply_to_id, created_at
		FROM messages
		WHERE conversation_id = $1 AND status != 'deleted'
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var messages []message.Message
	for rows.Next() {
		var m message.Message
		err := rows.Scan(
			&m.ID, &m.ConversationID, &m.FromUserID, &m.ToUserID, &m.Content,
			&m.Type, &m.Status, &m.ReplyToID, &m.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, total, nil
}

// UpdateStatus moves messages to a new status. Only rows addressed to the
// recipient move; rows already read, deleted, or already in the target
// status stay put, which makes repeated calls report zero changes.
func (s *MessageStore) UpdateStatus(ctx context.Context, ids []int64, recipientID int64, to message.Status) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE messages
		SET status = $1
	`
	if to == message.StatusRead {
		query += ", read_at = now()"
	}
	query += `
		WHERE id = ANY($2)
		AND to_user_id = $3
		AND status != $1
		AND status != 'read'
		AND status != 'deleted'
	`

	tag, err := s.db.Exec(ctx, query, to, ids, recipientID)
	if err != nil {
		return 0, fmt.Errorf("error updating message status: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// UnreadCount returns the number of unread messages addressed to a user.
func (s *MessageStore) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM messages
		WHERE to_user_id = $1 AND status = 'unread'
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting unread messages: %w", err)
	}

	return count, nil
}
