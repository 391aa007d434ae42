package events

import (
	"encoding/json"
	"time"

	"wallet/internal/ledger"
)

// ChangeMessage is the wire form of a ledger change. It carries enough to
// follow the ledger from a terminal; consumers that need the full record
// read it from the store.
type ChangeMessage struct {
	Kind        string    `json:"kind"`
	ExpenseID   int64     `json:"expense_id,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	BudgetCents int64     `json:"budget_cents"`
	Count       int       `json:"count"`
	Revision    uint64    `json:"revision"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewChangeMessage converts c into a message stamped with the current time.
func NewChangeMessage(c ledger.Change) *ChangeMessage {
	return &ChangeMessage{
		Kind:        string(c.Kind),
		ExpenseID:   c.Expense.ID,
		AmountCents: c.Expense.Amount.Cents,
		BudgetCents: c.Budget.Cents,
		Count:       c.Count,
		Revision:    c.Revision,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
