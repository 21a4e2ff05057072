package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "stockroom/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences keyed by sequence key.
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
	err    error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: map[string]int64{}}
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key := args[0].(string)
	switch {
	case strings.Contains(sql, "current_val + $2"):
		m.values[key] += args[1].(int64)
	case strings.Contains(sql, "current_val = $2"):
		m.values[key] = args[1].(int64)
	default:
		m.values[key]++
	}
	return &mockRow{val: m.values[key]}
}

var period = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	tests := []struct {
		cfg  corenumerator.Config
		want string
	}{
		{corenumerator.SaleInvoice, "SAL-2026-00001"},
		{corenumerator.SaleInvoice, "SAL-2026-00002"},
		{corenumerator.PurchaseInvoice, "PUR-2026-00001"},
		{corenumerator.Config{Prefix: "X", PadWidth: 3}, "X-001"},
	}
	for _, tt := range tests {
		got, err := svc.GetNextNumber(ctx, tt.cfg, nil, period)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, got)
		}
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.PurchaseRequest
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PRQ-2026-00001" {
		t.Errorf("expected PRQ-2026-00001, got %s", num)
	}

	for i := 0; i < 9; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, period); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.calls != 1 {
		t.Errorf("expected one range reservation, got %d", q.calls)
	}

	num, _ = svc.GetNextNumber(ctx, cfg, opts, period)
	if num != "PRQ-2026-00011" {
		t.Errorf("expected PRQ-2026-00011, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected a second reservation, got %d calls", q.calls)
	}
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.SaleInvoice
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	_, _ = svc.GetNextNumber(ctx, cfg, opts, period)
	if err := svc.SetNextNumber(ctx, cfg, period, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	num, _ := svc.GetNextNumber(ctx, cfg, opts, period)
	if num != "SAL-2026-00101" {
		t.Errorf("expected SAL-2026-00101, got %s", num)
	}
}

func TestGetNextNumber_QueryError(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("boom")
	svc := New(q)

	if _, err := svc.GetNextNumber(context.Background(), corenumerator.SaleInvoice, nil, period); err == nil {
		t.Fatal("expected error")
	}
}

func TestMemoryGenerator(t *testing.T) {
	gen := corenumerator.NewMemory()
	ctx := context.Background()

	first, _ := gen.GetNextNumber(ctx, corenumerator.SaleReturn, nil, period)
	second, _ := gen.GetNextNumber(ctx, corenumerator.SaleReturn, nil, period)
	nextYear, _ := gen.GetNextNumber(ctx, corenumerator.SaleReturn, nil, period.AddDate(1, 0, 0))

	if first != "SRT-2026-00001" || second != "SRT-2026-00002" || nextYear != "SRT-2027-00001" {
		t.Errorf("unexpected sequence %s %s %s", first, second, nextYear)
	}
}
