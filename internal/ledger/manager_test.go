package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wallet/internal/core"
	"wallet/internal/storage"
	"wallet/internal/storage/file"
	"wallet/internal/storage/memory"
)

var testNow = time.Date(2024, 1, 20, 9, 30, 0, 0, time.UTC)

func newTestManager(t *testing.T, store storage.Store) *Manager {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	m, err := New(context.Background(), store, WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func mustAdd(t *testing.T, m *Manager, amount, date, category string) core.Expense {
	t.Helper()
	e, err := m.AddExpense(context.Background(), NewExpense{
		Amount:        amount,
		Date:          date,
		Category:      category,
		Description:   "test",
		PaymentMethod: "Cash",
	})
	if err != nil {
		t.Fatalf("add %s %s %s: %v", amount, date, category, err)
	}
	return e
}

// failingStore wraps a store and fails writes when fail is set.
type failingStore struct {
	storage.Store
	fail bool
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func TestExampleFromDashboard(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	mustAdd(t, m, "455.50", "2024-01-15", core.FoodAndDining)
	mustAdd(t, m, "350.00", "2024-01-14", core.Transportation)
	if err := m.SetBudget(ctx, "10000"); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	s := m.Summary()
	if s.TotalSpent.Cents != 80550 {
		t.Fatalf("total spent = %s, want 805.50", s.TotalSpent)
	}
	if s.Remaining.Cents != 919450 {
		t.Fatalf("remaining = %s, want 9194.50", s.Remaining)
	}
	if s.Count != 2 || s.Status != core.StatusOK {
		t.Fatalf("unexpected summary %+v", s)
	}

	months := m.ByMonth()
	if len(months) != 1 || months[0].Month != "2024-01" || months[0].Total.Cents != 80550 {
		t.Fatalf("unexpected months %+v", months)
	}

	cats := m.ByCategory()
	if cats[core.FoodAndDining].Cents != 45550 || cats[core.Transportation].Cents != 35000 {
		t.Fatalf("unexpected categories %+v", cats)
	}
}

func TestAddExpenseValidation(t *testing.T) {
	m := newTestManager(t, nil)
	cases := []struct {
		name  string
		in    NewExpense
		field string
		want  error
	}{
		{"non-numeric amount", NewExpense{Amount: "abc", Date: "2024-01-01", Category: core.Shopping}, "amount", core.ErrInvalidAmount},
		{"zero amount", NewExpense{Amount: "0", Date: "2024-01-01", Category: core.Shopping}, "amount", core.ErrInvalidAmount},
		{"negative amount", NewExpense{Amount: "-3", Date: "2024-01-01", Category: core.Shopping}, "amount", core.ErrInvalidAmount},
		{"missing date", NewExpense{Amount: "1", Date: "", Category: core.Shopping}, "date", core.ErrInvalidDate},
		{"bad date", NewExpense{Amount: "1", Date: "01/02/2024", Category: core.Shopping}, "date", core.ErrInvalidDate},
		{"missing category", NewExpense{Amount: "1", Date: "2024-01-01"}, "category", core.ErrEmptyCategory},
		{"unknown category", NewExpense{Amount: "1", Date: "2024-01-01", Category: "Crypto"}, "category", core.ErrUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.AddExpense(context.Background(), tc.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field || !errors.Is(err, tc.want) {
				t.Fatalf("got field=%s err=%v, want field=%s err=%v", verr.Field, err, tc.field, tc.want)
			}
		})
	}
	if m.Len() != 0 || m.Revision() != 0 {
		t.Fatalf("rejected input must not change the ledger")
	}
}

func TestIDsAreUniqueWithinOneMillisecond(t *testing.T) {
	m := newTestManager(t, nil)
	a := mustAdd(t, m, "1", "2024-01-01", core.Shopping)
	b := mustAdd(t, m, "2", "2024-01-01", core.Shopping)
	if a.ID != testNow.UnixMilli() {
		t.Fatalf("first id = %d, want %d", a.ID, testNow.UnixMilli())
	}
	if b.ID != a.ID+1 {
		t.Fatalf("second id = %d, want %d", b.ID, a.ID+1)
	}
	if !a.CreatedAt.Equal(testNow) {
		t.Fatalf("created at = %v", a.CreatedAt)
	}
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	a := mustAdd(t, m, "10", "2024-01-01", core.Shopping)
	mustAdd(t, m, "5", "2024-02-01", core.Travel)
	rev := m.Revision()

	removed, err := m.DeleteExpense(ctx, 424242)
	if err != nil || removed {
		t.Fatalf("delete unknown: removed=%v err=%v", removed, err)
	}
	if m.Len() != 2 || m.Revision() != rev {
		t.Fatalf("unknown id must leave the ledger unchanged")
	}

	removed, err = m.DeleteExpense(ctx, a.ID)
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	if _, ok := m.Expense(a.ID); ok {
		t.Fatalf("expense %d still present", a.ID)
	}
	if s := m.Summary(); s.Count != 1 || s.TotalSpent.Cents != 500 {
		t.Fatalf("unexpected summary after delete %+v", s)
	}
}

func TestSummaryInvariantsHoldAcrossRandomMutations(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	r := rand.New(rand.NewSource(7))
	var ids []int64
	var sum int64
	adds, deletes := 0, 0

	for i := 0; i < 200; i++ {
		switch op := r.Intn(4); {
		case op < 2 || len(ids) == 0:
			cents := int64(r.Intn(100000) + 1)
			e := mustAdd(t, m, fmt.Sprintf("%d.%02d", cents/100, cents%100),
				fmt.Sprintf("2024-%02d-%02d", r.Intn(12)+1, r.Intn(28)+1), core.Categories[r.Intn(len(core.Categories))])
			ids = append(ids, e.ID)
			sum += cents
			adds++
		case op == 2:
			i := r.Intn(len(ids))
			e, _ := m.Expense(ids[i])
			if _, err := m.DeleteExpense(ctx, ids[i]); err != nil {
				t.Fatalf("delete: %v", err)
			}
			sum -= e.Amount.Cents
			ids = append(ids[:i], ids[i+1:]...)
			deletes++
		default:
			if err := m.SetBudget(ctx, fmt.Sprintf("%d", r.Intn(50000))); err != nil {
				t.Fatalf("set budget: %v", err)
			}
		}

		s := m.Summary()
		if s.Count != adds-deletes {
			t.Fatalf("count = %d, want %d", s.Count, adds-deletes)
		}
		if s.TotalSpent.Cents != sum {
			t.Fatalf("total = %d, want %d", s.TotalSpent.Cents, sum)
		}
		if s.Remaining.Cents != s.Budget.Cents-s.TotalSpent.Cents {
			t.Fatalf("remaining %d != budget %d - spent %d", s.Remaining.Cents, s.Budget.Cents, s.TotalSpent.Cents)
		}

		var monthSum, catSum int64
		for _, mt := range m.ByMonth() {
			monthSum += mt.Total.Cents
		}
		for _, v := range m.ByCategory() {
			catSum += v.Cents
		}
		if monthSum != sum || catSum != sum {
			t.Fatalf("group totals month=%d cat=%d, want %d", monthSum, catSum, sum)
		}
	}
}

func TestStateIsPersistedAndReloaded(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	m := newTestManager(t, store)
	mustAdd(t, m, "455.50", "2024-01-15", core.FoodAndDining)
	if err := m.SetBudget(ctx, "10000"); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	raw, err := store.Get(ctx, storage.KeyBudget)
	if err != nil || raw != "10000.00" {
		t.Fatalf("stored budget %q err=%v", raw, err)
	}

	reloaded := newTestManager(t, store)
	if s := reloaded.Summary(); s.Count != 1 || s.Budget.Cents != 1000000 || s.TotalSpent.Cents != 45550 {
		t.Fatalf("unexpected reloaded summary %+v", s)
	}
	next := mustAdd(t, reloaded, "1", "2024-01-16", core.Shopping)
	if next.ID <= testNow.UnixMilli() {
		t.Fatalf("reloaded manager reused an id: %d", next.ID)
	}
}

func TestMalformedStorageFallsBackToEmpty(t *testing.T) {
	cases := map[string]map[string]string{
		"invalid json":       {storage.KeyExpenses: "{not json", storage.KeyBudget: "abc"},
		"wrong shape":        {storage.KeyExpenses: `{"id":1}`, storage.KeyBudget: "-10"},
		"bad amount in list": {storage.KeyExpenses: `[{"id":1,"amount":"lots","date":"2024-01-01"}]`},
		"out of range":       {storage.KeyExpenses: `[{"id":1,"amount":1e20,"date":"2024-01-01"}]`, storage.KeyBudget: "1e19"},
	}
	for name, seed := range cases {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, memory.NewWith(seed))
			s := m.Summary()
			if s.Count != 0 || s.Budget.Cents != 0 || s.TotalSpent.Cents != 0 {
				t.Fatalf("expected empty ledger, got %+v", s)
			}
		})
	}
}

func TestLegacyDocumentLoads(t *testing.T) {
	seed := map[string]string{
		storage.KeyExpenses: `[{"id":1,"amount":455.5,"date":"2024-01-15","category":"Food & Dining","description":"Dinner at restaurant","paymentMethod":"Credit Card"},
			{"id":1,"amount":1,"date":"2024-01-15","category":"Other","description":"dup","paymentMethod":"Cash"},
			{"id":2,"amount":350,"date":"2024-01-14","category":"Transportation","description":"Gas for car","paymentMethod":"Debit Card","timestamp":"2024-01-14T08:00:00.000Z"}]`,
		storage.KeyBudget: "10000",
	}
	m := newTestManager(t, memory.NewWith(seed))
	s := m.Summary()
	if s.Count != 2 || s.TotalSpent.Cents != 80550 || s.Remaining.Cents != 919450 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestFailedPersistLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.New()}
	m := newTestManager(t, store)
	a := mustAdd(t, m, "10", "2024-01-01", core.Shopping)

	store.fail = true
	if _, err := m.AddExpense(ctx, NewExpense{Amount: "1", Date: "2024-01-02", Category: core.Shopping}); err == nil {
		t.Fatal("expected add to fail")
	}
	if err := m.SetBudget(ctx, "99"); err == nil {
		t.Fatal("expected set budget to fail")
	}
	if _, err := m.DeleteExpense(ctx, a.ID); err == nil {
		t.Fatal("expected delete to fail")
	}

	s := m.Summary()
	if s.Count != 1 || s.Budget.Cents != 0 || m.Revision() != 1 {
		t.Fatalf("state changed after failed writes: %+v rev=%d", s, m.Revision())
	}
}

func TestExpensesSorting(t *testing.T) {
	m := newTestManager(t, nil)
	mustAdd(t, m, "5", "2024-01-14", core.Transportation)
	mustAdd(t, m, "50", "2024-01-15", core.FoodAndDining)
	mustAdd(t, m, "20", "2023-12-31", core.Shopping)

	byDate := m.Expenses()
	if byDate[0].Date.String() != "2024-01-15" || byDate[2].Date.String() != "2023-12-31" {
		t.Fatalf("expected newest first, got %s..%s", byDate[0].Date, byDate[2].Date)
	}

	byAmount := m.ExpensesSorted(SortByAmount, false)
	if byAmount[0].Amount.Cents != 500 || byAmount[2].Amount.Cents != 5000 {
		t.Fatalf("unexpected amount order %v", byAmount)
	}

	byCat := m.ExpensesSorted(ParseSortField("category"), false)
	if byCat[0].Category != core.FoodAndDining || byCat[2].Category != core.Transportation {
		t.Fatalf("unexpected category order %v", byCat)
	}

	if ParseSortField("bogus") != SortByDate {
		t.Fatal("unknown sort field should default to date")
	}
}

func TestCategoryBreakdownOrder(t *testing.T) {
	m := newTestManager(t, nil)
	mustAdd(t, m, "5", "2024-01-14", core.Travel)
	mustAdd(t, m, "5", "2024-01-14", core.Education)
	mustAdd(t, m, "30", "2024-01-14", core.Shopping)

	got := m.CategoryBreakdown()
	want := []string{core.Shopping, core.Education, core.Travel}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d = %s, want %s (%v)", i, got[i].Name, name, got)
		}
	}
}

func TestListenersReceiveChanges(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	var kinds []ChangeKind
	unsubscribe := m.Subscribe(func(_ context.Context, c Change) {
		kinds = append(kinds, c.Kind)
	})

	e := mustAdd(t, m, "1", "2024-01-01", core.Shopping)
	_ = m.SetBudget(ctx, "100")
	_, _ = m.DeleteExpense(ctx, e.ID)
	_, _ = m.DeleteExpense(ctx, e.ID) // no-op, no notification
	unsubscribe()
	mustAdd(t, m, "1", "2024-01-01", core.Shopping)

	want := []ChangeKind{ChangeExpenseAdded, ChangeBudgetSet, ChangeExpenseDeleted}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("got %v, want %v", kinds, want)
		}
	}
}

func TestSetBudgetValidation(t *testing.T) {
	m := newTestManager(t, nil)
	if err := m.SetBudget(context.Background(), "-1"); !errors.Is(err, core.ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
	if err := m.SetBudget(context.Background(), "0"); err != nil {
		t.Fatalf("zero budget should be accepted: %v", err)
	}
}

func TestNewRejectsNilStore(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

type pingStore struct {
	storage.Store
	err error
}

func (p *pingStore) Ping(context.Context) error { return p.err }

func TestPing(t *testing.T) {
	ctx := context.Background()
	if err := newTestManager(t, nil).Ping(ctx); err != nil {
		t.Fatalf("memory store ping: %v", err)
	}
	down := errors.New("connection refused")
	m := newTestManager(t, &pingStore{Store: memory.New(), err: down})
	if err := m.Ping(ctx); !errors.Is(err, down) {
		t.Fatalf("ping = %v, want %v", err, down)
	}
}

func TestStoredRecordsBreakingInvariantsAreDropped(t *testing.T) {
	seed := map[string]string{
		storage.KeyExpenses: `[{"id":1,"amount":-50,"date":"2024-01-01","category":"Other"},
			{"id":2,"amount":30,"date":"","category":"Other"},
			{"id":3,"amount":20,"date":"2024-01-02","category":"Other"}]`,
		storage.KeyBudget: "100",
	}
	m := newTestManager(t, memory.NewWith(seed))
	s := m.Summary()
	if s.Count != 1 || s.TotalSpent.Cents != 2000 || s.Remaining.Cents != 8000 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if _, ok := m.Expense(3); !ok {
		t.Fatal("expected the valid record to survive")
	}
}

func TestManagersSharingAFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wallet.json")
	open := func() *Manager {
		s, err := file.Open(path)
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		return newTestManager(t, s)
	}

	terminal, dashboard := open(), open()
	a := mustAdd(t, terminal, "10", "2024-01-02", core.Shopping)
	if err := dashboard.SetBudget(ctx, "500"); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	b := mustAdd(t, dashboard, "20", "2024-01-03", core.Shopping)
	if a.ID == b.ID {
		t.Fatalf("both managers assigned id %d", a.ID)
	}

	s := open().Summary()
	if s.Count != 2 || s.TotalSpent.Cents != 3000 || s.Budget.Cents != 50000 {
		t.Fatalf("reopened ledger lost a write: %+v", s)
	}

	rev := terminal.Revision()
	if err := terminal.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if terminal.Len() != 2 || terminal.Budget().Cents != 50000 || terminal.Revision() <= rev {
		t.Fatalf("refresh missed the other manager's writes: len=%d budget=%s rev=%d",
			terminal.Len(), terminal.Budget(), terminal.Revision())
	}

	rev = terminal.Revision()
	if err := terminal.Refresh(ctx); err != nil || terminal.Revision() != rev {
		t.Fatalf("refresh without changes moved revision %d -> %d (err=%v)", rev, terminal.Revision(), err)
	}
}

func TestViewMatchesRevision(t *testing.T) {
	m := newTestManager(t, nil)
	mustAdd(t, m, "10", "2024-01-02", core.Shopping)
	mustAdd(t, m, "30", "2024-01-01", core.Shopping)

	v := m.View(SortByAmount, true)
	if v.Revision != m.Revision() || v.Summary.Count != 2 || v.Summary.TotalSpent.Cents != 4000 {
		t.Fatalf("unexpected view %+v", v)
	}
	if len(v.Expenses) != 2 || v.Expenses[0].Amount.Cents != 3000 {
		t.Fatalf("expected largest amount first, got %+v", v.Expenses)
	}
}

func TestMutationsLogStandardFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m, err := New(context.Background(), memory.New(),
		WithClock(func() time.Time { return testNow }),
		WithLogger(logger))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	mustAdd(t, m, "12.50", "2024-01-02", core.Shopping)
	if err := m.SetBudget(context.Background(), "100"); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"expense_id=", "amount_cents=1250", "category=Shopping", "budget_cents=10000"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
