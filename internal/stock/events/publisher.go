package events

import (
	"context"
	"time"

	"github.com/medisync/medisync-backend/internal/stock/repository"
	"github.com/medisync/medisync-backend/pkg/logger"
	"github.com/medisync/medisync-backend/pkg/messaging"
)

// StockEventPublisher publishes stock-related events
type StockEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewStockEventPublisher creates a new stock event publisher
func NewStockEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StockEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, "stock-service", log)
	if err != nil {
		return nil, err
	}

	return &StockEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishIntake publishes a stock intake event, created or merged
func (p *StockEventPublisher) PublishIntake(ctx context.Context, lot *repository.Lot, merged bool) {
	if p == nil {
		return
	}

	data := messaging.IntakeEvent{
		LotID:    lot.ID,
		Name:     lot.Name,
		Quantity: lot.Quantity,
		Expiry:   formatExpiry(lot.ExpiryDate),
		Merged:   merged,
	}

	eventType := messaging.EventIntakeCreated
	if merged {
		eventType = messaging.EventIntakeMerged
	}

	if _, err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish intake event")
	}
}

// PublishEdited publishes a stock edited event
func (p *StockEventPublisher) PublishEdited(ctx context.Context, lot *repository.Lot) {
	if p == nil {
		return
	}

	data := messaging.IntakeEvent{
		LotID:    lot.ID,
		Name:     lot.Name,
		Quantity: lot.Quantity,
		Expiry:   formatExpiry(lot.ExpiryDate),
	}

	if _, err := p.publisher.Publish(ctx, messaging.EventStockEdited, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish stock edited event")
	}
}

// PublishRemoved publishes a stock removed event
func (p *StockEventPublisher) PublishRemoved(ctx context.Context, lot *repository.Lot) {
	if p == nil {
		return
	}

	data := messaging.IntakeEvent{
		LotID:    lot.ID,
		Name:     lot.Name,
		Quantity: lot.Quantity,
		Expiry:   formatExpiry(lot.ExpiryDate),
	}

	if _, err := p.publisher.Publish(ctx, messaging.EventStockRemoved, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish stock removed event")
	}
}

// PublishDispensed publishes a stock dispensed event
func (p *StockEventPublisher) PublishDispensed(ctx context.Context, event *repository.DispenseEvent, newQuantity int) {
	if p == nil {
		return
	}

	data := messaging.StockDispensedEvent{
		EventID:     event.ID,
		StudentName: event.StudentName,
		MedName:     event.MedName,
		Quantity:    event.Quantity,
		NewQuantity: newQuantity,
	}

	if _, err := p.publisher.Publish(ctx, messaging.EventStockDispensed, data); err != nil {
		p.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to publish stock dispensed event")
	}
}

func formatExpiry(expiry *time.Time) *string {
	if expiry == nil {
		return nil
	}
	s := expiry.Format("2006-01-02")
	return &s
}
