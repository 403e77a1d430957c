// Package messaging hands notification messages to delivery providers.
package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/google/uuid"
)

// ErrDelivery is wrapped by every *DeliveryError.
var ErrDelivery = errors.New("delivery failed")

// Message is one outbound message to one recipient.
type Message struct {
	Channel   models.NotificationType `json:"channel"`
	Recipient string                  `json:"recipient"`
	Subject   string                  `json:"subject,omitempty"`
	Body      string                  `json:"body"`
}

// DeliveryError reports a provider rejecting or failing to accept a message.
type DeliveryError struct {
	Recipient string
	Channel   models.NotificationType
	// Retryable is true for transient failures such as timeouts or 5xx responses.
	Retryable bool
	Err       error
}

// Error implements error.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s via %s failed: %v", e.Recipient, e.Channel, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DeliveryError) Unwrap() []error {
	return []error{ErrDelivery, e.Err}
}

// Sender delivers a message and returns the provider's delivery id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) (string, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, msg Message) (string, error) {
	return f(ctx, msg)
}

// LogSender writes messages to the log instead of delivering them. It is used in development.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.WithComponent("messaging")}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &DeliveryError{Recipient: msg.Recipient, Channel: msg.Channel, Err: err}
	}
	if msg.Recipient == "" {
		return "", &DeliveryError{Recipient: msg.Recipient, Channel: msg.Channel, Err: errors.New("empty recipient")}
	}

	id := uuid.NewString()
	s.log.Info("Message delivered to log", map[string]interface{}{
		"delivery_id": id,
		"channel":     msg.Channel,
		"recipient":   msg.Recipient,
		"subject":     msg.Subject,
		"body":        msg.Body,
	})
	return id, nil
}
