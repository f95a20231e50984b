// Package notify turns domain events into durable notification rows.
// Producers publish envelopes to NATS; the dispatcher consumes them and
// writes to the notification store. Delivery to clients is poll-based.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"laf/internal/domain/message"
	"laf/internal/domain/notification"
)

const subjectMessageCreated = "message.created"

// previewLength bounds the preview text embedded in a notification.
const previewLength = 80

// Envelope wraps an event on the wire.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// MessageCreatedPayload is the payload of a message.created event.
type MessageCreatedPayload struct {
	MessageID      int64  `json:"messageId"`
	ConversationID int64  `json:"conversationId"`
	FromUserID     int64  `json:"fromUserId"`
	ToUserID       int64  `json:"toUserId"`
	Preview        string `json:"preview"`
}

// Publisher emits envelopes to NATS.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher creates a publisher rooted at the given subject prefix.
func NewPublisher(nc *nats.Conn, subject string, logger *slog.Logger) *Publisher {
	return &Publisher{
		nc:      nc,
		subject: subject,
		logger:  logger,
	}
}

// MessageCreated publishes a message.created envelope.
func (p *Publisher) MessageCreated(_ context.Context, m message.Message) error {
	payload, err := json.Marshal(MessageCreatedPayload{
		MessageID:      m.ID,
		ConversationID: m.ConversationID,
		FromUserID:     m.FromUserID,
		ToUserID:       m.ToUserID,
		Preview:        truncate(m.Content, previewLength),
	})
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	env := Envelope{
		ID:         uuid.NewString(),
		Type:       subjectMessageCreated,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	if err := p.nc.Publish(p.subject+"."+subjectMessageCreated, data); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	return nil
}

// Dispatcher consumes envelopes and writes notification rows.
type Dispatcher struct {
	store   notification.Store
	logger  *slog.Logger
	sub     *nats.Subscription
	timeout time.Duration
}

// NewDispatcher creates a dispatcher writing through the given store.
func NewDispatcher(store notification.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:   store,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Start subscribes to message.created under the subject prefix.
func (d *Dispatcher) Start(nc *nats.Conn, subject string) error {
	sub, err := nc.Subscribe(subject+"."+subjectMessageCreated, d.handleMessageCreated)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	d.sub = sub

	return nil
}

// Stop unsubscribes from the event stream.
func (d *Dispatcher) Stop() error {
	if d.sub == nil {
		return nil
	}
	return d.sub.Unsubscribe()
}

func (d *Dispatcher) handleMessageCreated(msg *nats.Msg) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		d.logger.Error("dropping malformed event envelope", "error", err)
		return
	}

	var payload MessageCreatedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		d.logger.Error("dropping malformed event payload", "event_id", env.ID, "error", err)
		return
	}

	data, err := json.Marshal(map[string]int64{
		"conversationId": payload.ConversationID,
		"messageId":      payload.MessageID,
		"fromUserId":     payload.FromUserID,
	})
	if err != nil {
		d.logger.Error("marshaling notification data", "event_id", env.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	_, err = d.store.Insert(ctx, notification.Notification{
		UserID:  payload.ToUserID,
		Type:    notification.TypeNewMessage,
		Title:   "New message",
		Content: payload.Preview,
		Data:    data,
	})
	if err != nil {
		d.logger.Error("writing notification", "event_id", env.ID, "error", err)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
