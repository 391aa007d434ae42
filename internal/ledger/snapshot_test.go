package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"wallet/internal/core"
	"wallet/internal/storage"
	"wallet/internal/storage/memory"
)

func sameExpenses(t *testing.T, got, want []core.Expense) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d expenses, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Amount != w.Amount || g.Date.String() != w.Date.String() ||
			g.Category != w.Category || g.Description != w.Description ||
			g.PaymentMethod != w.PaymentMethod || !g.CreatedAt.Equal(w.CreatedAt) {
			t.Fatalf("expense %d differs:\n got %+v\nwant %+v", i, g, w)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	mustAdd(t, m, "455.50", "2024-01-15", core.FoodAndDining)
	mustAdd(t, m, "350", "2024-01-14", core.Transportation)
	if err := m.SetBudget(ctx, "10000"); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(m.Snapshot()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.ExportDate.Equal(testNow) {
		t.Fatalf("export date = %v", decoded.ExportDate)
	}

	fresh := newTestManager(t, nil)
	if err := fresh.Import(ctx, decoded); err != nil {
		t.Fatalf("import: %v", err)
	}
	sameExpenses(t, fresh.Snapshot().Expenses, m.Snapshot().Expenses)
	if fresh.Budget() != m.Budget() {
		t.Fatalf("budget %s, want %s", fresh.Budget(), m.Budget())
	}
	if fresh.Summary() != m.Summary() {
		t.Fatalf("summary %+v, want %+v", fresh.Summary(), m.Summary())
	}
}

func TestImportRejectsDuplicateIDs(t *testing.T) {
	m := newTestManager(t, nil)
	snap := SampleSnapshot()
	snap.Expenses[1].ID = snap.Expenses[0].ID
	if err := m.Import(context.Background(), snap); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatal("rejected import must not change the ledger")
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	m := newTestManager(t, store)

	seeded, err := m.Seed(ctx)
	if err != nil || !seeded {
		t.Fatalf("first seed: seeded=%v err=%v", seeded, err)
	}
	s := m.Summary()
	if s.Count != 3 || s.Budget.Cents != 1000000 || s.TotalSpent.Cents != 170549 {
		t.Fatalf("unexpected seeded summary %+v", s)
	}

	next := mustAdd(t, m, "1", "2024-01-16", core.OtherCategory)
	if next.ID <= 3 {
		t.Fatalf("id %d collides with sample ids", next.ID)
	}

	seeded, err = m.Seed(ctx)
	if err != nil || seeded {
		t.Fatalf("second seed: seeded=%v err=%v", seeded, err)
	}
	if m.Len() != 4 {
		t.Fatalf("seed overwrote existing data")
	}
}

func TestSeedSkipsWhenStorageHasEmptyList(t *testing.T) {
	store := memory.NewWith(map[string]string{storage.KeyExpenses: "[]"})
	m := newTestManager(t, store)
	seeded, err := m.Seed(context.Background())
	if err != nil || seeded {
		t.Fatalf("seeded=%v err=%v", seeded, err)
	}
}
