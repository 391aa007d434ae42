package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/storage"
)

// Snapshot is a serialisable copy of the ledger. Field names follow the
// export document users already download.
type Snapshot struct {
	Expenses      []core.Expense `json:"expenses"`
	MonthlyBudget core.Money     `json:"monthlyBudget"`
	ExportDate    time.Time      `json:"exportDate"`
}

var ErrDuplicateID = errors.New("duplicate expense id")

// Snapshot returns a read-only dump of the ledger taken at the manager's
// current time.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	expenses := make([]core.Expense, len(m.expenses))
	copy(expenses, m.expenses)
	return Snapshot{
		Expenses:      expenses,
		MonthlyBudget: m.budget,
		ExportDate:    m.now().UTC(),
	}
}

// Import replaces the whole ledger with snap and persists it. Records keep
// their IDs; a snapshot with repeated IDs or negative amounts is rejected.
func (m *Manager) Import(ctx context.Context, snap Snapshot) error {
	if snap.MonthlyBudget.Cents < 0 {
		return invalid("budget", core.ErrInvalidBudget)
	}
	expenses := make([]core.Expense, len(snap.Expenses))
	copy(expenses, snap.Expenses)
	seen := make(map[int64]struct{}, len(expenses))
	var lastID int64
	for _, e := range expenses {
		if _, ok := seen[e.ID]; ok {
			return invalid("expenses", fmt.Errorf("%w: %d", ErrDuplicateID, e.ID))
		}
		seen[e.ID] = struct{}{}
		if e.Amount.Cents < 0 {
			return invalid("amount", core.ErrInvalidAmount)
		}
		if err := e.Date.Validate(); err != nil {
			return invalid("date", err)
		}
		if e.ID > lastID {
			lastID = e.ID
		}
	}

	var prevExpenses []core.Expense
	var prevBudget core.Money
	change, err := m.mutate(ctx, func() (Change, error) {
		prevExpenses, prevBudget = m.expenses, m.budget
		if err := m.saveExpenses(ctx, expenses); err != nil {
			return Change{}, err
		}
		if err := m.saveBudget(ctx, snap.MonthlyBudget); err != nil {
			// Put the previous collection back so storage matches memory.
			if rerr := m.saveExpenses(ctx, prevExpenses); rerr != nil {
				m.logger.ErrorContext(ctx, "Failed to restore expenses after import error", log.FieldError, rerr)
			}
			return Change{}, err
		}
		m.expenses = expenses
		m.budget = snap.MonthlyBudget
		if lastID > m.lastID {
			m.lastID = lastID
		}
		return m.commit(ChangeImported, core.Expense{}), nil
	})
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "Ledger imported",
		"expenses", len(expenses),
		log.FieldBudgetCents, snap.MonthlyBudget.Cents,
		"previous_expenses", len(prevExpenses),
		"previous_budget_cents", prevBudget.Cents)
	m.notify(ctx, change)
	return nil
}

// SampleSnapshot returns the demo records used by Seed.
func SampleSnapshot() Snapshot {
	return Snapshot{
		Expenses: []core.Expense{
			{
				ID:            1,
				Amount:        core.Money{Cents: 45550},
				Date:          core.NewDate(2024, 1, 15),
				Category:      core.FoodAndDining,
				Description:   "Dinner at restaurant",
				PaymentMethod: "Credit Card",
			},
			{
				ID:            2,
				Amount:        core.Money{Cents: 35000},
				Date:          core.NewDate(2024, 1, 14),
				Category:      core.Transportation,
				Description:   "Gas for car",
				PaymentMethod: "Debit Card",
			},
			{
				ID:            3,
				Amount:        core.Money{Cents: 89999},
				Date:          core.NewDate(2024, 1, 13),
				Category:      core.Shopping,
				Description:   "New clothes",
				PaymentMethod: "Credit Card",
			},
		},
		MonthlyBudget: core.Money{Cents: 1000000},
	}
}

// Seed loads the sample data, but only when storage has never held an
// expense collection. It reports whether anything was written.
func (m *Manager) Seed(ctx context.Context) (bool, error) {
	_, err := m.store.Get(ctx, storage.KeyExpenses)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("check existing expenses: %w", err)
	}
	if err := m.Import(ctx, SampleSnapshot()); err != nil {
		return false, fmt.Errorf("seed sample data: %w", err)
	}
	return true, nil
}
