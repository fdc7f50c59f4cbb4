package notify

import (
	"context"

	"github.com/medisync/medisync-backend/pkg/logger"
	"github.com/medisync/medisync-backend/pkg/messaging"
)

// Notification is a composed alert ready for delivery
type Notification struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	LowCount      int    `json:"low_count"`
	ExpiringCount int    `json:"expiring_count"`
	ExpiredCount  int    `json:"expired_count"`
}

// Dispatcher delivers composed notifications through the host platform.
// Send returns a delivery ID; an error is a non-fatal delivery failure
// and must not trigger a retry the same day.
type Dispatcher interface {
	// RequestPermission reports whether the notification channel is usable.
	// A false return means the caller should defer, not fail.
	RequestPermission(ctx context.Context) bool
	Send(ctx context.Context, n Notification) (string, error)
}

// AMQPDispatcher delivers notifications by publishing to the
// notification.events exchange, where the platform notifier consumes them.
type AMQPDispatcher struct {
	rmq       *messaging.RabbitMQ
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewAMQPDispatcher creates a dispatcher backed by RabbitMQ
func NewAMQPDispatcher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AMQPDispatcher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeNotificationEvents, "stock-service", log)
	if err != nil {
		return nil, err
	}

	return &AMQPDispatcher{
		rmq:       rmq,
		publisher: publisher,
		logger:    log,
	}, nil
}

// RequestPermission reports whether the broker connection is up
func (d *AMQPDispatcher) RequestPermission(ctx context.Context) bool {
	return d.rmq.IsUp()
}

// Send publishes the alert and returns the event ID as delivery ID
func (d *AMQPDispatcher) Send(ctx context.Context, n Notification) (string, error) {
	data := messaging.AlertDispatchedEvent{
		Title:         n.Title,
		Body:          n.Body,
		LowCount:      n.LowCount,
		ExpiringCount: n.ExpiringCount,
		ExpiredCount:  n.ExpiredCount,
	}

	id, err := d.publisher.Publish(ctx, messaging.EventAlertDispatched, data)
	if err != nil {
		return "", err
	}

	d.logger.Info().
		Str("delivery_id", id).
		Int("low", n.LowCount).
		Int("expiring", n.ExpiringCount).
		Int("expired", n.ExpiredCount).
		Msg("daily alert dispatched")

	return id, nil
}
