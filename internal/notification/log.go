package notification

import (
	"context"

	"consultant-access/internal/logger"

	"go.uber.org/zap"
)

// LogDispatcher records that a message would have been sent. The body is left
// out on purpose since it can carry a setup link.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Send(_ context.Context, msg Message) error {
	logger.Info("Notification dispatched",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_length", len(msg.Body)),
		zap.String("event", "notification_logged"),
	)
	return nil
}
