package ledger

import (
	"context"

	"wallet/internal/core"
)

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeExpenseAdded   ChangeKind = "expense.added"
	ChangeExpenseDeleted ChangeKind = "expense.deleted"
	ChangeBudgetSet      ChangeKind = "budget.set"
	ChangeImported       ChangeKind = "ledger.imported"
)

// Change describes a persisted mutation. Expense is set for the add and
// delete kinds only.
type Change struct {
	Kind     ChangeKind
	Expense  core.Expense
	Budget   core.Money
	Count    int
	Revision uint64
}

// Listener is called after every successful mutation.
type Listener func(ctx context.Context, c Change)

// Subscribe registers l and returns a function that removes it.
func (m *Manager) Subscribe(l Listener) (unsubscribe func()) {
	m.lmu.Lock()
	defer m.lmu.Unlock()
	m.listeners = append(m.listeners, l)
	idx := len(m.listeners) - 1
	return func() {
		m.lmu.Lock()
		defer m.lmu.Unlock()
		if idx < len(m.listeners) {
			m.listeners[idx] = nil
		}
	}
}

func (m *Manager) notify(ctx context.Context, c Change) {
	m.lmu.Lock()
	ls := append([]Listener(nil), m.listeners...)
	m.lmu.Unlock()
	for _, l := range ls {
		if l != nil {
			l(ctx, c)
		}
	}
}
