package events

import (
	"context"

	"go.uber.org/zap"
)

// NewAuditHandler returns a Handler that records every event it receives.
func NewAuditHandler(logger *zap.Logger) Handler {
	return func(_ context.Context, event Event) error {
		logger.Info("audit event",
			zap.String("type", event.Type),
			zap.Time("timestamp", event.Timestamp),
			zap.Any("data", event.Data),
		)
		return nil
	}
}
