package ledger

import (
	"sort"
	"strings"

	"wallet/internal/core"
)

// SortField selects the expense table column to order by.
type SortField string

const (
	SortByDate          SortField = "date"
	SortByAmount        SortField = "amount"
	SortByCategory      SortField = "category"
	SortByDescription   SortField = "description"
	SortByPaymentMethod SortField = "paymentMethod"
)

// ParseSortField maps a query value to a SortField, defaulting to date.
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortByAmount, SortByCategory, SortByDescription, SortByPaymentMethod:
		return SortField(s)
	default:
		return SortByDate
	}
}

// Summary derives the dashboard cards from the current state.
func (m *Manager) Summary() core.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return summarize(m.budget, m.expenses)
}

func summarize(budget core.Money, expenses []core.Expense) core.Summary {
	var spent core.Money
	for _, e := range expenses {
		spent = spent.Add(e.Amount)
	}
	remaining := budget.Sub(spent)
	return core.Summary{
		Budget:     budget,
		TotalSpent: spent,
		Remaining:  remaining,
		Count:      len(expenses),
		Status:     core.BudgetStatus(budget, remaining),
	}
}

// Expenses returns a copy of the records, newest date first.
func (m *Manager) Expenses() []core.Expense {
	return m.ExpensesSorted(SortByDate, true)
}

// ExpensesSorted returns a copy of the records ordered by field. Ties are
// broken by creation time and then ID, in the same direction.
func (m *Manager) ExpensesSorted(field SortField, desc bool) []core.Expense {
	m.mu.Lock()
	out := make([]core.Expense, len(m.expenses))
	copy(out, m.expenses)
	m.mu.Unlock()

	sortExpenses(out, field, desc)
	return out
}

// View is one consistent read of what the dashboard shows: the summary
// and the sorted records both belong to Revision.
type View struct {
	Revision uint64
	Summary  core.Summary
	Expenses []core.Expense
}

// View takes the summary, the records and the revision under one lock.
func (m *Manager) View(field SortField, desc bool) View {
	m.mu.Lock()
	v := View{
		Revision: m.revision,
		Summary:  summarize(m.budget, m.expenses),
		Expenses: make([]core.Expense, len(m.expenses)),
	}
	copy(v.Expenses, m.expenses)
	m.mu.Unlock()

	sortExpenses(v.Expenses, field, desc)
	return v
}

func sortExpenses(out []core.Expense, field SortField, desc bool) {
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], field)
		if c == 0 {
			c = tiebreak(out[i], out[j])
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b core.Expense, field SortField) int {
	switch field {
	case SortByAmount:
		return cmpInt64(a.Amount.Cents, b.Amount.Cents)
	case SortByCategory:
		return strings.Compare(a.Category, b.Category)
	case SortByDescription:
		return strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
	case SortByPaymentMethod:
		return strings.Compare(a.PaymentMethod, b.PaymentMethod)
	default:
		return a.Date.Compare(b.Date.Time)
	}
}

func tiebreak(a, b core.Expense) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmpInt64(a.ID, b.ID)
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ByCategory sums amounts per category label. Labels are opaque: "Food"
// and "food" are different buckets.
func (m *Manager) ByCategory() map[string]core.Money {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := make(map[string]core.Money)
	for _, e := range m.expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}

// CategoryBreakdown is ByCategory as a slice ordered by amount, largest
// first, then by name, for charts and tables that need a stable order.
func (m *Manager) CategoryBreakdown() []core.CategoryAmount {
	totals := m.ByCategory()
	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ByMonth sums amounts per calendar month, ascending by "YYYY-MM".
func (m *Manager) ByMonth() []core.MonthTotal {
	m.mu.Lock()
	totals := make(map[string]core.Money)
	for _, e := range m.expenses {
		k := e.Date.MonthKey()
		totals[k] = totals[k].Add(e.Amount)
	}
	m.mu.Unlock()

	out := make([]core.MonthTotal, 0, len(totals))
	for month, total := range totals {
		out = append(out, core.MonthTotal{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
