package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"laf/internal/domain/item"
	"laf/internal/domain/message"
)

// ConversationStore implements message.ConversationStore on PostgreSQL.
// The conversations table carries a unique constraint on
// (item_id, user1_id, user2_id); together with the canonical pair
// ordering it guarantees at most one thread per (item, pair).
type ConversationStore struct {
	db *pgxpool.Pool
}

// NewConversationStore creates a new conversation store.
func NewConversationStore(db *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{
		db: db,
	}
}

// FindOrCreate resolves the conversation for a canonical key, inserting it
// when absent. The conditional insert is a single atomic statement; when a
// concurrent caller wins the race the insert returns no row and the
// existing one is re-fetched. A plain select-then-insert would admit
// duplicate threads and is deliberately not used here.
func (s *ConversationStore) FindOrCreate(ctx context.Context, itemID, user1ID, user2ID int64) (*message.Conversation, error) {
	conv := &message.Conversation{ItemID: itemID, User1ID: user1ID, User2ID: user2ID}

	err := s.db.QueryRow(ctx, `
		INSERT INTO conversations (item_id, user1_id, user2_id, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (item_id, user1_id, user2_id) DO NOTHING
		RETURNING id, last_message_id, last_message_at, created_at
	`, itemID, user1ID, user2ID).Scan(
		&conv.ID, &conv.LastMessageID, &conv.LastMessageAt, &conv.CreatedAt,
	)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("error inserting conversation: %w", err)
	}

	// Insert hit the uniqueness constraint: the row already exists.
	err = s.db.QueryRow(ctx, `
		SELECT id, last_message_id, last_message_at, created_at
		FROM conversations
		WHERE item_id = $1 AND user1_id = $2 AND user2_id = $3
	`, itemID, user1ID, user2ID).Scan(
		&conv.ID, &conv.LastMessageID, &conv.LastMessageAt, &conv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error fetching existing conversation: %w", err)
	}

	return conv, nil
}

// GetByID returns a conversation or message.ErrConversationNotFound.
func (s *ConversationStore) GetByID(ctx context.Context, id int64) (*message.Conversation, error) {
	conv := &message.Conversation{}
	err := s.db.QueryRow(ctx, `
		SELECT id, item_id, user1_id, user2_id, last_message_id, last_message_at, created_at
		FROM conversations
		WHERE id = $1
	`, id).Scan(
		&conv.ID, &conv.ItemID, &conv.User1ID, &conv.User2ID,
		&conv.LastMessageID, &conv.LastMessageAt, &conv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, message.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying conversation: %w", err)
	}

	return conv, nil
}

// ListForUser returns conversation previews ordered by last activity.
// Counterpart users, items and last messages are all LEFT JOINed so a
// deleted account or listing nulls the fields instead of hiding the
// conversation.
func (s *ConversationStore) ListForUser(ctx context.Context, userID int64) ([]message.ConversationPreview, error) {
	query := `
		SELECT
			c.id, c.item_id, i.title, i.type,
			other_user.id, other_user.username, other_user.avatar,
			m.id, m.conversation_id, m.from_user_id, m.to_user_id,
			m.content, m.message_type, m.status, m.created_at,
			(SELECT count(*) FROM messages um
			 WHERE um.conversation_id = c.id
			 AND um.to_user_id = $1
			 AND um.status = 'unread'),
			c.last_message_at
		FROM conversations c
		LEFT JOIN items i ON c.item_id = i.id
		LEFT JOIN messages m ON c.last_message_id = m.id
		LEFT JOIN users other_user ON other_user.id = CASE
			WHEN c.user1_id = $1 THEN c.user2_id
			ELSE c.user1_id
		END
		WHERE c.user1_id = $1 OR c.user2_id = $1
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var previews []message.ConversationPreview
	for rows.Next() {
		var p message.ConversationPreview
		var itemTitle *string
		var itemType *string
		var lastID, lastConvID, lastFrom, lastTo *int64
		var lastContent, lastType, lastStatus *string
		var lastCreated *time.Time

		err := rows.Scan(
			&p.ID, &p.ItemID, &itemTitle, &itemType,
			&p.Participant.ID, &p.Participant.Username, &p.Participant.Avatar,
			&lastID, &lastConvID, &lastFrom, &lastTo,
			&lastContent, &lastType, &lastStatus, &lastCreated,
			&p.UnreadCount,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning conversation: %w", err)
		}

		p.ItemTitle = itemTitle
		if itemType != nil {
			t := item.Type(*itemType)
			p.ItemType = &t
		}
		if lastID != nil {
			p.LastMessage = &message.Message{
				ID:             *lastID,
				ConversationID: *lastConvID,
				FromUserID:     *lastFrom,
				ToUserID:       *lastTo,
				Content:        *lastContent,
				Type:           message.Type(*lastType),
				Status:         message.Status(*lastStatus),
				CreatedAt:      *lastCreated,
			}
		}

		previews = append(previews, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return previews, nil
}

// SetLastMessage advances the last-message pointer with a last-write-wins
// guard: an update carrying an older timestamp than the stored one is a
// no-op, so retries and out-of-order delivery cannot move the pointer
// backwards.
func (s *ConversationStore) SetLastMessage(ctx context.Context, conversationID, messageID int64, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_id = $2, last_message_at = $3
		WHERE id = $1
		AND (last_message_at IS NULL OR last_message_at <= $3)
	`, conversationID, messageID, at)
	if err != nil {
		return fmt.Errorf("error updating last message: %w", err)
	}

	return nil
}
