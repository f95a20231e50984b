// Package messaging implements private messaging between two users about
// a listing: conversation resolution, the append-only message log and
// read-state transitions.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"laf/internal/config"
	"laf/internal/domain/item"
	"laf/internal/domain/message"
)

// Service-level validation errors.
var (
	ErrContentTooLong = errors.New("message content too long")
	ErrInvalidStatus  = errors.New("invalid message status")
)

// ItemGetter is the slice of the item store messaging needs to verify the
// listing a message refers to.
type ItemGetter interface {
	GetByID(ctx context.Context, id int64) (*item.Item, error)
}

// Publisher emits events after a message is durably stored. Publishing is
// best-effort: a failure is logged and never fails the send.
type Publisher interface {
	MessageCreated(ctx context.Context, m message.Message) error
}

// SendInput carries a send request after boundary parsing.
type SendInput struct {
	ToUserID  int64
	ItemID    int64
	Content   string
	Type      message.Type
	ReplyToID *int64
}

// Page is one page of a conversation's log plus pagination metadata.
type Page struct {
	Messages   []message.Message `json:"messages"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
}

// Service coordinates conversation identity and the message log.
type Service struct {
	conversations message.ConversationStore
	messages      message.MessageStore
	items         ItemGetter
	events        Publisher
	cfg           config.MessagingConfig
	logger        *slog.Logger
}

// NewService creates a new messaging service.
func NewService(
	conversations message.ConversationStore,
	messages message.MessageStore,
	items ItemGetter,
	events Publisher,
	cfg config.MessagingConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		items:         items,
		events:        events,
		cfg:           cfg,
		logger:        logger,
	}
}

// Send appends a message from one user to another about a listing,
// resolving (or atomically creating) the conversation first. The
// conversation's last-message pointer is advanced afterwards as a
// separate, retriable step: the message is durable once inserted and the
// pointer update may lag.
func (s *Service) Send(ctx context.Context, fromUserID int64, in SendInput) (*message.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, message.ErrEmptyContent
	}
	if s.cfg.MaxMessageLength > 0 && len([]rune(content)) > s.cfg.MaxMessageLength {
		return nil, ErrContentTooLong
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidStatus
	}

	p1, p2, err := message.CanonicalPair(fromUserID, in.ToUserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.items.GetByID(ctx, in.ItemID); err != nil {
		return nil, fmt.Errorf("verifying item: %w", err)
	}

	conv, err := s.conversations.FindOrCreate(ctx, in.ItemID, p1, p2)
	if err != nil {
		return nil, fmt.Errorf("resolving conversation: %w", err)
	}

	msg, err := s.messages.Insert(ctx, message.Message{
		ConversationID: conv.ID,
		FromUserID:     fromUserID,
		ToUserID:       in.ToUserID,
		Content:        content,
		Type:           in.Type,
		ReplyToID:      in.ReplyToID,
	})
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	if err := s.conversations.SetLastMessage(ctx, conv.ID, msg.ID, msg.CreatedAt); err != nil {
		s.logger.Warn("last-message pointer update failed",
			"conversation_id", conv.ID, "message_id", msg.ID, "error", err)
	}

	if s.events != nil {
		if err := s.events.MessageCreated(ctx, *msg); err != nil {
			s.logger.Warn("message event publish failed",
				"message_id", msg.ID, "error", err)
		}
	}

	return msg, nil
}

// Conversations returns the caller's conversation previews, most recently
// active first.
func (s *Service) Conversations(ctx context.Context, userID int64) ([]message.ConversationPreview, error) {
	previews, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	return previews, nil
}

// Messages returns one page of a conversation in chronological ascending
// order. The caller must be a participant.
func (s *Service) Messages(ctx context.Context, conversationID, userID int64, page, pageSize int) (*Page, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, message.ErrNotParticipant
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if s.cfg.MaxPageSize > 0 && pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	msgs, total, err := s.messages.ListByConversation(ctx, conversationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	return &Page{
		Messages:   msgs,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// MarkRead moves the given messages to delivered or read. Only messages
// addressed to the recipient transition, and reapplying is a no-op;
// returns the number of messages that actually changed.
func (s *Service) MarkRead(ctx context.Context, ids []int64, recipientID int64, to message.Status) (int, error) {
	// Deletion has its own path; here the only legal targets are the
	// forward moves out of unread.
	if to == message.StatusDeleted || !message.CanTransition(message.StatusUnread, to) {
		return 0, ErrInvalidStatus
	}

	affected, err := s.messages.UpdateStatus(ctx, ids, recipientID, to)
	if err != nil {
		return 0, fmt.Errorf("updating message status: %w", err)
	}

	return affected, nil
}

// UnreadCount returns the caller's total unread message count.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.messages.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}

	return count, nil
}
