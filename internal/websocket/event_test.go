package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_CombinedType(t *testing.T) {
	tests := []struct {
		name      string
		eventType EventType
		entity    EntityType
		expected  string
	}{
		{"loan created", EventTypeCreated, EntityTypeLoan, "loan.created"},
		{"loan updated", EventTypeUpdated, EntityTypeLoan, "loan.updated"},
		{"loan deleted", EventTypeDeleted, EntityTypeLoan, "loan.deleted"},
		{"line paid", EventTypePaid, EntityTypeLoanLine, "loan_line.paid"},
		{"line unpaid", EventTypeUnpaid, EntityTypeLoanLine, "loan_line.unpaid"},
		{"bill updated", EventTypeUpdated, EntityTypeBill, "bill.updated"},
		{"receipt created", EventTypeCreated, EntityTypeReceipt, "receipt.created"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := NewEvent(tt.eventType, tt.entity, nil)
			assert.Equal(t, tt.expected, event.Type)
			assert.Equal(t, tt.entity, event.Entity)
		})
	}
}

func TestNewEvent_TimestampIsUTC(t *testing.T) {
	before := time.Now().UTC()
	event := NewEvent(EventTypeCreated, EntityTypeLoan, nil)
	after := time.Now().UTC()

	assert.Equal(t, time.UTC, event.Timestamp.Location())
	assert.False(t, event.Timestamp.Before(before))
	assert.False(t, event.Timestamp.After(after))
}

func TestEvent_ToJSON(t *testing.T) {
	event := LoanUpdated(map[string]interface{}{"id": 42, "name": "Car loan"})

	data, err := event.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "loan.updated", decoded["type"])
	assert.Equal(t, "loan", decoded["entity"])

	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), payload["id"])
	assert.Equal(t, "Car loan", payload["name"])
}

func TestEventConstructors(t *testing.T) {
	assert.Equal(t, "loan.created", LoanCreated(nil).Type)
	assert.Equal(t, "loan.deleted", LoanDeleted(nil).Type)
	assert.Equal(t, "bill.created", BillCreated(nil).Type)
	assert.Equal(t, "bill.deleted", BillDeleted(nil).Type)
	assert.Equal(t, "receipt.created", ReceiptCreated(nil).Type)
}
