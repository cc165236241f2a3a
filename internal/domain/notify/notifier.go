// Package notify delivers customer and supplier facing notifications.
// Delivery is best-effort: a failed notification never fails the
// business operation that produced it.
package notify

import (
	"context"

	"supplytrack/pkg/logger"
)

// Message is a single outbound notification.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Notifier sends messages to customers and suppliers.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Compile-time check that LogNotifier implements Notifier.
var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the application log. It stands in
// for an SMTP or messaging integration in environments without one.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send logs the message.
func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	logger.Info(ctx, "notification",
		"recipient", msg.Recipient,
		"subject", msg.Subject,
	)
	return nil
}

// BestEffort sends a message and logs a warning instead of returning errors.
func BestEffort(ctx context.Context, n Notifier, msg Message) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, msg); err != nil {
		logger.Warn(ctx, "notification failed",
			"recipient", msg.Recipient,
			"subject", msg.Subject,
			"error", err,
		)
	}
}
