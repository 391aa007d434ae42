package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the calendar date format used by forms, storage and exports.
const DateLayout = "2006-01-02"

const (
	FoodAndDining    = "Food & Dining"
	Transportation   = "Transportation"
	Shopping         = "Shopping"
	Entertainment    = "Entertainment"
	BillsAndUtilites = "Bills & Utilities"
	Healthcare       = "Healthcare"
	Education        = "Education"
	Travel           = "Travel"
	OtherCategory    = "Other"
)

// MaxDescriptionLen bounds the free-text description of an expense.
const (
	MaxDescriptionLen   = 200
	MaxPaymentMethodLen = 50
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is one user-entered spending event. Records are immutable
	// once created; the only mutation is deletion by ID.
	Expense struct {
		ID            int64
		Amount        Money
		Date          Date
		Category      string
		Description   string
		PaymentMethod string
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidBudget      = errors.New("invalid budget")
	ErrEmptyCategory      = errors.New("empty category")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrPaymentTooLong     = errors.New("payment method too long (max 50 characters)")
)

// Categories lists the fixed category labels offered by the expense form.
var Categories = []string{
	FoodAndDining,
	Transportation,
	Shopping,
	Entertainment,
	BillsAndUtilites,
	Healthcare,
	Education,
	Travel,
	OtherCategory,
}

// PaymentMethods lists the payment methods offered by the expense form.
var PaymentMethods = []string{
	"Cash",
	"Credit Card",
	"Debit Card",
	"UPI",
	"Net Banking",
	"Other",
}

// IsKnownCategory reports whether name is one of labels. Labels are
// compared as opaque strings.
func IsKnownCategory(labels []string, name string) bool {
	for _, l := range labels {
		if l == name {
			return true
		}
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the year-month bucket ("2024-01") the date falls in.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if utf8.RuneCountInString(e.PaymentMethod) > MaxPaymentMethodLen {
		return ErrPaymentTooLong
	}
	return nil
}
