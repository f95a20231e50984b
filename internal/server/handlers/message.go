package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"laf/internal/domain/message"
	"laf/internal/service/messaging"
)

// MessageHandler handles private messaging HTTP requests.
type MessageHandler struct {
	service *messaging.Service
	logger  *slog.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(service *messaging.Service, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		logger:  logger,
	}
}

// SendMessage sends a private message about a listing, creating the
// conversation on first contact.
// POST /api/v1/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	var req struct {
		ToUserID  int64        `json:"toUserId"`
		ItemID    int64        `json:"itemId"`
		Content   string       `json:"content"`
		Type      message.Type `json:"type"`
		ReplyToID *int64       `json:"replyToId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.ToUserID <= 0 || req.ItemID <= 0 || req.Content == "" {
		respondWithError(w, http.StatusBadRequest, "MISSING_PARAMS", "toUserId, itemId and content are required")
		return
	}

	msg, err := h.service.Send(r.Context(), userID, messaging.SendInput{
		ToUserID:  req.ToUserID,
		ItemID:    req.ItemID,
		Content:   req.Content,
		Type:      req.Type,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusCreated, msg)
}

// GetConversations lists the caller's conversations, most recently
// active first.
// GET /api/v1/messages/conversations
func (h *MessageHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	conversations, err := h.service.Conversations(r.Context(), userID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
	})
}

// GetConversationMessages returns one page of a conversation in
// chronological order.
// GET /api/v1/messages/conversations/{id}?page=&pageSize=
func (h *MessageHandler) GetConversationMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	conversationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || conversationID <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_ID", "conversation id must be a positive integer")
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 0)

	result, err := h.service.Messages(r.Context(), conversationID, userID, page, pageSize)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"messages": result.Messages,
		"pagination": map[string]int{
			"page":       result.Page,
			"pageSize":   result.PageSize,
			"total":      result.Total,
			"totalPages": result.TotalPages,
		},
	})
}

// MarkMessagesRead marks messages addressed to the caller as read (or
// delivered). Reapplying is a no-op.
// PUT /api/v1/messages/read
func (h *MessageHandler) MarkMessagesRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	var req struct {
		MessageIDs []int64        `json:"messageIds"`
		Status     message.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if len(req.MessageIDs) == 0 {
		respondWithError(w, http.StatusBadRequest, "MISSING_PARAMS", "messageIds is required")
		return
	}
	if req.Status == "" {
		req.Status = message.StatusRead
	}

	updated, err := h.service.MarkRead(r.Context(), req.MessageIDs, userID, req.Status)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]int{"updated": updated})
}

// GetUnreadCount returns the caller's total unread message count.
// GET /api/v1/messages/unread-count
func (h *MessageHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]int{"count": count})
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
