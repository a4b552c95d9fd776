package services

import (
	"context"

	"github.com/rs/zerolog"
)

// Lifecycle events published after a successful write.
const (
	EventUserSignedUp = "user.signed_up"
	EventNoteCreated  = "note.created"
	EventNoteUpdated  = "note.updated"
	EventNoteDeleted  = "note.deleted"
)

// EventPublisher delivers domain events to a broker. *rabbitmq.Client
// satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// publish sends the event when a publisher is configured. The write it
// reports has already been committed, so failures are only logged.
func publish(ctx context.Context, p EventPublisher, logger zerolog.Logger, eventType string, data interface{}) {
	if p == nil {
		logger.Debug().Str("event", eventType).Msg("no publisher configured, skipping event")
		return
	}
	if err := p.Publish(ctx, eventType, data); err != nil {
		logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

type noteEvent struct {
	NoteID string   `json:"note_id"`
	UserID string   `json:"user_id"`
	Title  string   `json:"title,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

type userEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
