package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"laf/internal/domain/notification"
)

// NotificationHandler handles notification feed HTTP requests.
type NotificationHandler struct {
	store  notification.Store
	logger *slog.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(store notification.Store, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		store:  store,
		logger: logger,
	}
}

// ListNotifications returns the caller's notifications, newest first.
// GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	notifications, err := h.store.ListForUser(r.Context(), userID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

// MarkNotificationRead marks one notification read.
// PUT /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_ID", "notification id must be a positive integer")
		return
	}

	if err := h.store.MarkRead(r.Context(), id, userID); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]int64{"id": id})
}

// MarkAllNotificationsRead marks every unread notification read.
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	updated, err := h.store.MarkAllRead(r.Context(), userID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]int{"updated": updated})
}

// DeleteNotification soft-deletes one notification.
// DELETE /api/v1/notifications/{id}
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_ID", "notification id must be a positive integer")
		return
	}

	if err := h.store.Delete(r.Context(), id, userID); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]int64{"id": id})
}
