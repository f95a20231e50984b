package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"laf/internal/domain/geo"
	"laf/internal/domain/item"
	"laf/internal/domain/message"
	"laf/internal/domain/notification"
	"laf/internal/service/messaging"
)

// envelope is the uniform response body. Data is omitted on errors.
type envelope struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respondWithData writes a success envelope.
func respondWithData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Message: "OK", Data: data})
}

// respondWithError writes an error envelope with a machine-stable code.
func respondWithError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, envelope{Success: false, Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"code":"INTERNAL","message":"failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// statusFor maps a typed domain failure to its HTTP status and stable
// error code. Unknown errors are internal; storage timeouts surface as
// service-unavailable so callers know the whole request is retryable.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, geo.ErrMalformedBounds):
		return http.StatusBadRequest, "INVALID_BOUNDS"
	case errors.Is(err, geo.ErrOutOfRange):
		return http.StatusBadRequest, "BOUNDS_OUT_OF_RANGE"
	case errors.Is(err, geo.ErrDegenerateRegion):
		return http.StatusBadRequest, "DEGENERATE_REGION"
	case errors.Is(err, geo.ErrRegionTooLarge):
		return http.StatusBadRequest, "REGION_TOO_LARGE"
	case errors.Is(err, message.ErrSelfConversation):
		return http.StatusBadRequest, "SELF_MESSAGE"
	case errors.Is(err, message.ErrEmptyContent):
		return http.StatusBadRequest, "EMPTY_CONTENT"
	case errors.Is(err, messaging.ErrContentTooLong):
		return http.StatusBadRequest, "CONTENT_TOO_LONG"
	case errors.Is(err, messaging.ErrInvalidStatus):
		return http.StatusBadRequest, "INVALID_STATUS"
	case errors.Is(err, item.ErrInvalidTransition):
		return http.StatusBadRequest, "INVALID_TRANSITION"
	case errors.Is(err, item.ErrUnknownCategory):
		return http.StatusBadRequest, "UNKNOWN_CATEGORY"
	case errors.Is(err, message.ErrNotParticipant):
		return http.StatusForbidden, "NOT_PARTICIPANT"
	case errors.Is(err, item.ErrNotOwner):
		return http.StatusForbidden, "NOT_OWNER"
	case errors.Is(err, message.ErrConversationNotFound):
		return http.StatusNotFound, "CONVERSATION_NOT_FOUND"
	case errors.Is(err, item.ErrNotFound):
		return http.StatusNotFound, "ITEM_NOT_FOUND"
	case errors.Is(err, notification.ErrNotFound):
		return http.StatusNotFound, "NOTIFICATION_NOT_FOUND"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// respondDomainError maps err via statusFor and logs server-side
// failures. Client messages never carry internal error details.
func respondDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", code, "error", err)
		msg = "internal server error"
		if status == http.StatusServiceUnavailable {
			msg = "storage unavailable"
		}
	}
	respondWithError(w, status, code, msg)
}
