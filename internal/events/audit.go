package events

import (
	"context"

	"go.uber.org/zap"
)

// RegisterAuditLog subscribes a structured-log handler to every auth event,
// giving operators a trail of logins, logouts, and role changes.
func RegisterAuditLog(dispatcher Dispatcher, logger *zap.Logger) {
	handler := func(_ context.Context, event Event) error {
		logger.Info("audit",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("subject", event.Subject),
			zap.Time("timestamp", event.Timestamp),
			zap.Any("payload", event.Payload),
		)
		return nil
	}

	for _, eventType := range []EventType{
		EventUserRegistered,
		EventUserLoggedIn,
		EventTokenRevoked,
		EventRolesChanged,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
