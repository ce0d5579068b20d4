// Package notify delivers subscriber notifications. Delivery is best effort:
// a failed notification never fails the operation that raised it.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log. It stands in for
// an SMS or email gateway in environments without one.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify records a notification addressed to a subscriber
func (n *LogNotifier) Notify(ctx context.Context, msisdn, category, channel, message string) error {
	n.logger.Info("Notification sent",
		zap.String("msisdn", msisdn),
		zap.String("category", category),
		zap.String("channel", channel),
		zap.String("message", message))
	return nil
}
