package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypePaid    EventType = "paid"
	EventTypeUnpaid  EventType = "unpaid"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeLoan     EntityType = "loan"
	EntityTypeLoanLine EntityType = "loan_line"
	EntityTypeBill     EntityType = "bill"
	EntityTypeReceipt  EntityType = "receipt"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "loan.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "loan"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LoanCreated creates a loan.created event
func LoanCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLoan, payload)
}

// LoanUpdated creates a loan.updated event
func LoanUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeLoan, payload)
}

// LoanDeleted creates a loan.deleted event
func LoanDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeLoan, payload)
}

// LoanLinePaid creates a loan_line.paid event
func LoanLinePaid(payload interface{}) Event {
	return NewEvent(EventTypePaid, EntityTypeLoanLine, payload)
}

// LoanLineUnpaid creates a loan_line.unpaid event
func LoanLineUnpaid(payload interface{}) Event {
	return NewEvent(EventTypeUnpaid, EntityTypeLoanLine, payload)
}

// BillCreated creates a bill.created event
func BillCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeBill, payload)
}

// BillUpdated creates a bill.updated event
func BillUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeBill, payload)
}

// BillDeleted creates a bill.deleted event
func BillDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeBill, payload)
}

// ReceiptCreated creates a receipt.created event
func ReceiptCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeReceipt, payload)
}
