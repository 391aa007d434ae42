package main

import (
	"strings"
	"testing"
	"time"

	"wallet/internal/events"
	"wallet/internal/ledger"
)

func TestDescribeChange(t *testing.T) {
	ts := time.Date(2024, 1, 20, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		msg  events.ChangeMessage
		want string
	}{
		{events.ChangeMessage{Kind: string(ledger.ChangeExpenseAdded), ExpenseID: 7, AmountCents: 45550, Count: 3, Timestamp: ts}, "#7 added ₹455.50 (3 expenses)"},
		{events.ChangeMessage{Kind: string(ledger.ChangeExpenseDeleted), ExpenseID: 7, AmountCents: 45550, Count: 2, Timestamp: ts}, "#7 deleted ₹455.50 (2 expenses)"},
		{events.ChangeMessage{Kind: string(ledger.ChangeBudgetSet), BudgetCents: 1000000, Timestamp: ts}, "budget set to ₹10,000.00"},
		{events.ChangeMessage{Kind: string(ledger.ChangeImported), BudgetCents: 100, Count: 3, Timestamp: ts}, "ledger.imported: 3 expenses, budget ₹1.00"},
	}
	for _, tt := range tests {
		if got := describeChange(&tt.msg); !strings.HasSuffix(got, tt.want) {
			t.Errorf("describeChange(%s) = %q, want suffix %q", tt.msg.Kind, got, tt.want)
		}
	}
}
