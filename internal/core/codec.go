package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts any JSON number (or a quoted decimal) and rounds
// it to cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		m.Cents = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	cents, err := CentsFromDecimal(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" and, for documents written by other
// tools, a full RFC 3339 timestamp whose calendar date is kept.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

// expenseDocument is the persisted shape of an expense record.
type expenseDocument struct {
	ID            int64      `json:"id"`
	Amount        Money      `json:"amount"`
	Date          Date       `json:"date"`
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	PaymentMethod string     `json:"paymentMethod"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
}

func (e Expense) MarshalJSON() ([]byte, error) {
	var ts *time.Time
	if !e.CreatedAt.IsZero() {
		t := e.CreatedAt.UTC()
		ts = &t
	}
	return json.Marshal(expenseDocument{
		ID:            e.ID,
		Amount:        e.Amount,
		Date:          e.Date,
		Category:      e.Category,
		Description:   e.Description,
		PaymentMethod: e.PaymentMethod,
		Timestamp:     ts,
	})
}

func (e *Expense) UnmarshalJSON(data []byte) error {
	var doc expenseDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	var createdAt time.Time
	if doc.Timestamp != nil {
		createdAt = *doc.Timestamp
	}
	*e = Expense{
		ID:            doc.ID,
		Amount:        doc.Amount,
		Date:          doc.Date,
		Category:      doc.Category,
		Description:   doc.Description,
		PaymentMethod: doc.PaymentMethod,
		CreatedAt:     createdAt,
	}
	return nil
}
