package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Stock events
	EventIntakeCreated  = "stock.intake.created"
	EventIntakeMerged   = "stock.intake.merged"
	EventStockEdited    = "stock.edited"
	EventStockRemoved   = "stock.removed"
	EventStockDispensed = "stock.dispensed"

	// Notification events
	EventAlertDispatched = "notification.alert.dispatched"
)

// Exchange names
const (
	ExchangeStockEvents        = "stock.events"
	ExchangeNotificationEvents = "notification.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// IntakeEvent is published when stock intake creates or merges a lot
type IntakeEvent struct {
	LotID    string  `json:"lot_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Expiry   *string `json:"expiry_date,omitempty"`
	Merged   bool    `json:"merged"`
}

// StockDispensedEvent is published when medicine is dispensed
type StockDispensedEvent struct {
	EventID     string `json:"event_id"`
	StudentName string `json:"student_name"`
	MedName     string `json:"med_name"`
	Quantity    int    `json:"quantity"`
	NewQuantity int    `json:"new_quantity"`
}

// AlertDispatchedEvent is the consolidated daily alert notification
type AlertDispatchedEvent struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	LowCount      int    `json:"low_count"`
	ExpiringCount int    `json:"expiring_count"`
	ExpiredCount  int    `json:"expired_count"`
}
