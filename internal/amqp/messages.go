package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ExpenseCreatedMessage announces a newly persisted expense. It carries only
// the key; consumers re-read the record from the store.
type ExpenseCreatedMessage struct {
	OwnerID   string    `json:"owner_id"`
	ExpenseID string    `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseCreatedMessage creates a message stamped with the current time
func NewExpenseCreatedMessage(ownerID, expenseID string) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		OwnerID:   ownerID,
		ExpenseID: expenseID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseCreatedMessageFromJSON decodes a message and checks its key fields.
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" || msg.ExpenseID == "" {
		return nil, errors.New("message missing owner_id or expense_id")
	}
	return &msg, nil
}
