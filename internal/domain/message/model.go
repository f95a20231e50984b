// Package message defines the two-party conversation and message models.
// A conversation is identified by (item, participant pair); the pair is
// always stored in canonical ascending order so the same two users can
// never own two threads about one item.
package message

import (
	"context"
	"errors"
	"time"

	"laf/internal/domain/item"
)

// Type classifies message content.
type Type string

const (
	TypeText  Type = "text"
	TypeOther Type = "other"
)

// Valid reports whether t is a known message type. The empty value is
// allowed and defaults to text.
func (t Type) Valid() bool {
	return t == "" || t == TypeText || t == TypeOther
}

// Status is the read/delivery state of a message.
type Status string

const (
	StatusUnread    Status = "unread"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusDeleted   Status = "deleted"
)

// CanTransition reports whether a status change is allowed:
// unread -> delivered|read, delivered -> read, any -> deleted, and
// deleted is terminal.
func CanTransition(from, to Status) bool {
	if from == StatusDeleted {
		return false
	}
	if to == StatusDeleted {
		return true
	}
	switch from {
	case StatusUnread:
		return to == StatusDelivered || to == StatusRead
	case StatusDelivered:
		return to == StatusRead
	}
	return false
}

// Conversation is a canonical per-(item, participant-pair) thread.
// Invariant: User1ID < User2ID.
type Conversation struct {
	ID            int64      `json:"id"`
	ItemID        int64      `json:"itemId"`
	User1ID       int64      `json:"user1Id"`
	User2ID       int64      `json:"user2Id"`
	LastMessageID *int64     `json:"lastMessageId,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// HasParticipant reports whether the user is one of the two parties.
func (c Conversation) HasParticipant(userID int64) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Counterpart returns the other participant's id.
func (c Conversation) Counterpart(userID int64) int64 {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// Message is one entry of a conversation's append-only log.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	FromUserID     int64     `json:"fromUserId"`
	ToUserID       int64     `json:"toUserId"`
	Content        string    `json:"content"`
	Type           Type      `json:"type"`
	Status         Status    `json:"status"`
	ReplyToID      *int64    `json:"replyToId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Participant is the counterpart shown in a conversation listing. Fields
// are pointers so a deleted account renders as nulls instead of dropping
// the conversation.
type Participant struct {
	ID       *int64  `json:"id"`
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
}

// ConversationPreview is one row of a user's conversation list.
type ConversationPreview struct {
	ID          int64       `json:"id"`
	ItemID      int64       `json:"itemId"`
	ItemTitle   *string     `json:"itemTitle"`
	ItemType    *item.Type  `json:"itemType"`
	Participant Participant `json:"participant"`
	LastMessage *Message    `json:"lastMessage,omitempty"`
	UnreadCount int         `json:"unreadCount"`
	UpdatedAt   *time.Time  `json:"updatedAt,omitempty"`
}

// Domain errors surfaced to the HTTP layer.
var (
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a conversation participant")
	ErrEmptyContent         = errors.New("message content is empty")
)

// CanonicalPair orders two participant ids ascending. It fails when both
// ids are the same user.
func CanonicalPair(a, b int64) (int64, int64, error) {
	if a == b {
		return 0, 0, ErrSelfConversation
	}
	if a < b {
		return a, b, nil
	}
	return b, a, nil
}

// ConversationStore is the persistence contract for conversations.
type ConversationStore interface {
	// FindOrCreate atomically resolves the conversation for a canonical
	// (item, user1 < user2) key, inserting it when absent. Concurrent
	// callers always converge on a single row.
	FindOrCreate(ctx context.Context, itemID, user1ID, user2ID int64) (*Conversation, error)

	// GetByID returns a conversation or ErrConversationNotFound.
	GetByID(ctx context.Context, id int64) (*Conversation, error)

	// ListForUser returns previews for every conversation the user is
	// part of, most recently active first. Deleted counterpart users and
	// items still yield rows with nulled fields.
	ListForUser(ctx context.Context, userID int64) ([]ConversationPreview, error)

	// SetLastMessage advances the last-message pointer. Last write wins
	// on last_message_at; stale updates are ignored.
	SetLastMessage(ctx context.Context, conversationID, messageID int64, at time.Time) error
}

// MessageStore is the persistence contract for the append-only log.
type MessageStore interface {
	// Insert appends a message and returns it with its assigned id and
	// server timestamp.
	Insert(ctx context.Context, m Message) (*Message, error)

	// ListByConversation returns one page in chronological ascending
	// order together with the total message count.
	ListByConversation(ctx context.Context, conversationID int64, limit, offset int) ([]Message, int, error)

	// UpdateStatus moves the given messages to a new status, touching
	// only rows addressed to the recipient that are not already read.
	// Returns the number of rows changed.
	UpdateStatus(ctx context.Context, ids []int64, recipientID int64, to Status) (int, error)

	// UnreadCount returns the number of unread messages addressed to
	// the user.
	UnreadCount(ctx context.Context, userID int64) (int, error)
}
