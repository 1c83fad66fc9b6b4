package providers

import (
	"context"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

// EventBus carries medication session events between the goroutine that
// mutates a session and the streams following it, possibly on another
// API instance.
type EventBus interface {
	Publish(ctx context.Context, channel string, event *entities.SessionEvent) error

	// Subscribe delivers events published after it returns. The channel is
	// closed when ctx is done or the bus closes.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SessionEvent, error)

	Close() error
}

// EventChannelSessionPrefix namespaces session channels on shared brokers.
const EventChannelSessionPrefix = "medication-session:"

// SessionChannel returns the channel a session publishes on.
func SessionChannel(sessionID string) string {
	return EventChannelSessionPrefix + sessionID
}
