// Package ledger owns the expense collection and the monthly budget,
// mirrors both to a storage.Store on every mutation and derives the
// summary, table and chart views from them.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/storage"
)

// NewExpense carries raw user input for AddExpense.
type NewExpense struct {
	Amount        string
	Date          string
	Category      string
	Description   string
	PaymentMethod string
}

// Manager is safe for concurrent use. Listeners run after the internal
// lock is released, in registration order.
//
// Several processes may share one store: every mutation re-reads storage
// while holding the store's Locker, and Refresh picks up writes made
// elsewhere.
type Manager struct {
	mu         sync.Mutex
	store      storage.Store
	stored     stored
	expenses   []core.Expense
	budget     core.Money
	lastID     int64
	revision   uint64
	categories []string
	now        func() time.Time
	logger     *slog.Logger

	lmu       sync.Mutex
	listeners []Listener
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, for deterministic IDs and timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCategories restricts AddExpense to the given labels.
func WithCategories(labels []string) Option {
	return func(m *Manager) { m.categories = append([]string(nil), labels...) }
}

// WithLogger sets the logger used for load warnings and mutations.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New loads the ledger from store. Absent keys yield an empty collection
// and a zero budget; malformed values are logged and treated as absent.
func New(ctx context.Context, store storage.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("ledger: nil store")
	}
	m := &Manager{
		store:      store,
		categories: core.Categories,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// stored is the pair of raw values last read from or written to the store.
type stored struct {
	expenses, budget       string
	hasExpenses, hasBudget bool
}

func (m *Manager) readStored(ctx context.Context) (stored, error) {
	var st stored
	raw, err := m.store.Get(ctx, storage.KeyExpenses)
	switch {
	case err == nil:
		st.expenses, st.hasExpenses = raw, true
	case !errors.Is(err, storage.ErrNotFound):
		return stored{}, fmt.Errorf("load expenses: %w", err)
	}
	raw, err = m.store.Get(ctx, storage.KeyBudget)
	switch {
	case err == nil:
		st.budget, st.hasBudget = raw, true
	case !errors.Is(err, storage.ErrNotFound):
		return stored{}, fmt.Errorf("load budget: %w", err)
	}
	return st, nil
}

func (m *Manager) load(ctx context.Context) error {
	st, err := m.readStored(ctx)
	if err != nil {
		return err
	}
	m.apply(ctx, st)
	m.logger.DebugContext(ctx, "Ledger loaded", "expenses", len(m.expenses), log.FieldBudgetCents, m.budget.Cents)
	return nil
}

// refreshLocked reloads state when storage no longer holds what this
// manager last read or wrote. It must be called with mu held.
func (m *Manager) refreshLocked(ctx context.Context) error {
	st, err := m.readStored(ctx)
	if err != nil {
		return err
	}
	if st == m.stored {
		return nil
	}
	m.apply(ctx, st)
	m.revision++
	m.logger.DebugContext(ctx, "Ledger reloaded after external change",
		"expenses", len(m.expenses),
		log.FieldRevision, m.revision)
	return nil
}

// Refresh picks up changes another process wrote to the shared store.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

// apply must be called with mu held. Malformed values are logged and
// treated as absent.
func (m *Manager) apply(ctx context.Context, st stored) {
	m.stored = st
	m.expenses = nil
	if st.hasExpenses {
		var expenses []core.Expense
		if err := json.Unmarshal([]byte(st.expenses), &expenses); err != nil {
			m.logger.WarnContext(ctx, "Stored expenses are malformed, starting empty", log.FieldError, err)
		} else {
			m.expenses = clean(ctx, m.logger, expenses)
		}
	}
	m.budget = core.Money{}
	if st.hasBudget {
		cents, err := core.CentsFromDecimal(st.budget)
		if err != nil || cents < 0 {
			m.logger.WarnContext(ctx, "Stored budget is malformed, using zero", "value", st.budget)
		} else {
			m.budget = core.Money{Cents: cents}
		}
	}
	for _, e := range m.expenses {
		if e.ID > m.lastID {
			m.lastID = e.ID
		}
	}
}

// clean drops records that break the ledger invariants: repeated IDs,
// negative amounts and missing dates. Hand-edited storage can hold any of
// them.
func clean(ctx context.Context, logger *slog.Logger, in []core.Expense) []core.Expense {
	seen := make(map[int64]struct{}, len(in))
	out := in[:0]
	for _, e := range in {
		if _, ok := seen[e.ID]; ok {
			logger.WarnContext(ctx, "Dropping stored expense with duplicate id", log.FieldExpenseID, e.ID)
			continue
		}
		if e.Amount.Cents < 0 {
			logger.WarnContext(ctx, "Dropping stored expense with negative amount",
				log.FieldExpenseID, e.ID,
				log.FieldAmountCents, e.Amount.Cents)
			continue
		}
		if err := e.Date.Validate(); err != nil {
			logger.WarnContext(ctx, "Dropping stored expense without a valid date",
				log.FieldExpenseID, e.ID,
				log.FieldError, err)
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// mutate runs fn with mu held, the store locked against other processes
// and the in-memory state refreshed from storage. A zero Change from fn
// means nothing was written.
func (m *Manager) mutate(ctx context.Context, fn func() (Change, error)) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.store.(storage.Locker); ok {
		unlock, err := l.Lock(ctx)
		if err != nil {
			return Change{}, fmt.Errorf("lock store: %w", err)
		}
		defer func() {
			if err := unlock(); err != nil {
				m.logger.WarnContext(ctx, "Failed to release store lock", log.FieldError, err)
			}
		}()
	}
	if err := m.refreshLocked(ctx); err != nil {
		return Change{}, err
	}
	return fn()
}

// AddExpense validates in, assigns an ID and persists the new record.
func (m *Manager) AddExpense(ctx context.Context, in NewExpense) (core.Expense, error) {
	e, err := m.parse(in)
	if err != nil {
		return core.Expense{}, err
	}

	change, err := m.mutate(ctx, func() (Change, error) {
		now := m.now()
		e.ID = m.nextID(now)
		e.CreatedAt = now.UTC()
		next := make([]core.Expense, len(m.expenses), len(m.expenses)+1)
		copy(next, m.expenses)
		next = append(next, e)
		if err := m.saveExpenses(ctx, next); err != nil {
			return Change{}, err
		}
		m.expenses = next
		m.lastID = e.ID
		return m.commit(ChangeExpenseAdded, e), nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	m.logger.InfoContext(ctx, "Expense added",
		log.FieldExpenseID, e.ID,
		log.FieldAmountCents, e.Amount.Cents,
		log.FieldCategory, e.Category,
		"date", e.Date.String())
	m.notify(ctx, change)
	return e, nil
}

func (m *Manager) parse(in NewExpense) (core.Expense, error) {
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.Expense{}, invalid("amount", err)
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Expense{}, invalid("date", err)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return core.Expense{}, invalid("category", core.ErrEmptyCategory)
	}
	if len(m.categories) > 0 && !core.IsKnownCategory(m.categories, category) {
		return core.Expense{}, invalid("category", fmt.Errorf("%w: %q", core.ErrUnknownCategory, category))
	}
	e := core.Expense{
		Amount:        core.Money{Cents: cents},
		Date:          date,
		Category:      category,
		Description:   strings.TrimSpace(in.Description),
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, invalid(fieldFor(err), err)
	}
	return e, nil
}

func fieldFor(err error) string {
	switch {
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "description"
	case errors.Is(err, core.ErrPaymentTooLong):
		return "paymentMethod"
	case errors.Is(err, core.ErrInvalidAmount):
		return "amount"
	case errors.Is(err, core.ErrEmptyCategory):
		return "category"
	default:
		return "date"
	}
}

// nextID keeps IDs millisecond-based like the original records while
// staying strictly increasing when two adds land in the same millisecond.
func (m *Manager) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	return id
}

// SetBudget replaces the budget. Zero is allowed; negative is rejected.
func (m *Manager) SetBudget(ctx context.Context, amount string) error {
	cents, err := core.ParseBudgetToCents(amount)
	if err != nil {
		return invalid("budget", err)
	}
	budget := core.Money{Cents: cents}

	change, err := m.mutate(ctx, func() (Change, error) {
		if err := m.saveBudget(ctx, budget); err != nil {
			return Change{}, err
		}
		m.budget = budget
		return m.commit(ChangeBudgetSet, core.Expense{}), nil
	})
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "Budget updated", log.FieldBudgetCents, budget.Cents)
	m.notify(ctx, change)
	return nil
}

// DeleteExpense removes the record with id. It reports whether a record
// was removed; an unknown id is a no-op, not an error.
func (m *Manager) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	change, err := m.mutate(ctx, func() (Change, error) {
		idx := -1
		for i, e := range m.expenses {
			if e.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Change{}, nil
		}
		removed := m.expenses[idx]
		next := make([]core.Expense, 0, len(m.expenses)-1)
		next = append(next, m.expenses[:idx]...)
		next = append(next, m.expenses[idx+1:]...)
		if err := m.saveExpenses(ctx, next); err != nil {
			return Change{}, err
		}
		m.expenses = next
		return m.commit(ChangeExpenseDeleted, removed), nil
	})
	if err != nil {
		return false, err
	}
	if change.Kind == "" {
		m.logger.DebugContext(ctx, "Delete of unknown expense ignored", log.FieldExpenseID, id)
		return false, nil
	}

	m.logger.InfoContext(ctx, "Expense deleted",
		log.FieldExpenseID, id,
		log.FieldAmountCents, change.Expense.Amount.Cents)
	m.notify(ctx, change)
	return true, nil
}

// Revision increases with every successful mutation.
func (m *Manager) Revision() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revision
}

// Budget returns the current budget.
func (m *Manager) Budget() core.Money {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budget
}

// Len returns the number of records.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.expenses)
}

// Expense returns the record with id.
func (m *Manager) Expense(id int64) (core.Expense, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// commit must be called with mu held.
func (m *Manager) commit(kind ChangeKind, e core.Expense) Change {
	m.revision++
	return Change{
		Kind:     kind,
		Expense:  e,
		Budget:   m.budget,
		Count:    len(m.expenses),
		Revision: m.revision,
	}
}

// saveExpenses must be called with mu held.
func (m *Manager) saveExpenses(ctx context.Context, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	data, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := m.store.Set(ctx, storage.KeyExpenses, string(data)); err != nil {
		return fmt.Errorf("persist expenses: %w", err)
	}
	m.stored.expenses, m.stored.hasExpenses = string(data), true
	return nil
}

// saveBudget must be called with mu held.
func (m *Manager) saveBudget(ctx context.Context, budget core.Money) error {
	raw := budget.String()
	if err := m.store.Set(ctx, storage.KeyBudget, raw); err != nil {
		return fmt.Errorf("persist budget: %w", err)
	}
	m.stored.budget, m.stored.hasBudget = raw, true
	return nil
}

// Ping reports whether the backing store is reachable. Stores that cannot
// tell are assumed reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if p, ok := m.store.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
