package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/honeybadger0tter/mytropx-demo/internal/catalog"
)

type fakeStore struct {
	readFn   func(ctx context.Context, sessionID string) ([]byte, error)
	writeFn  func(ctx context.Context, sessionID string, payload []byte) error
	deleteFn func(ctx context.Context, sessionID string) error
}

func (f *fakeStore) Read(ctx context.Context, sessionID string) ([]byte, error) {
	if f.readFn != nil {
		return f.readFn(ctx, sessionID)
	}
	return nil, ErrNotFound
}

func (f *fakeStore) Write(ctx context.Context, sessionID string, payload []byte) error {
	if f.writeFn != nil {
		return f.writeFn(ctx, sessionID, payload)
	}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, sessionID)
	}
	return nil
}

func testCatalog() catalog.Provider {
	return catalog.NewSnapshot([]catalog.Product{
		{ID: "brief", Price: decimal.NewFromFloat(34.0), Sizes: []string{"S", "M", "L"}},
		{ID: "jock", Price: decimal.NewFromFloat(26.95), Sizes: []string{"M", "L"}},
		{ID: "one-size", Price: decimal.NewFromFloat(19.95)},
	})
}

func newTestService(t *testing.T, store Store) Service {
	t.Helper()
	svc, err := NewService(store, testCatalog(), nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, testCatalog(), nil); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewService(NewMemoryStore(), nil, nil); err == nil {
		t.Fatal("expected error for nil catalog")
	}
}

func TestAddLineMergesSameKey(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 1)
	result := svc.AddLine(ctx, "s1", "brief", "M", 1)

	if len(result) != 1 {
		t.Fatalf("same key must merge into one line, got %d", len(result))
	}
	if result[0].Qty != 2 {
		t.Fatalf("expected merged qty 2, got %d", result[0].Qty)
	}
}

func TestAddLineDefaultsToFirstSize(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	result := svc.AddLine(ctx, "s1", "brief", "", 1)
	if result[0].Size != "S" {
		t.Fatalf("expected first catalog size, got %q", result[0].Size)
	}

	// A sizeless product keeps the empty size.
	result = svc.AddLine(ctx, "s1", "one-size", "", 1)
	if result[1].Size != "" {
		t.Fatalf("expected empty size for sizeless product, got %q", result[1].Size)
	}
}

func TestAddLineUnknownProductIsNoop(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 1)
	result := svc.AddLine(ctx, "s1", "ghost-product", "M", 1)

	if len(result) != 1 {
		t.Fatalf("unknown product must not change the cart, got %d lines", len(result))
	}
}

func TestAddLineClampsMergeAtCeiling(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 98)
	result := svc.AddLine(ctx, "s1", "brief", "M", 50)

	if result[0].Qty != MaxQty {
		t.Fatalf("merge must clamp at %d, got %d", MaxQty, result[0].Qty)
	}
}

func TestAddLineFloorsRequestedQty(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	result := svc.AddLine(context.Background(), "s1", "brief", "M", -5)
	if result[0].Qty != 1 {
		t.Fatalf("non-positive request must floor at 1, got %d", result[0].Qty)
	}
}

func TestUpdateQuantityRemovesAtZero(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 2)
	result := svc.UpdateQuantity(ctx, "s1", "brief", "M", -2)

	if len(result) != 0 {
		t.Fatalf("decrement to zero must remove the line, got %d lines", len(result))
	}
	if reloaded := svc.Load(ctx, "s1"); len(reloaded) != 0 {
		t.Fatalf("removal must persist, got %d lines", len(reloaded))
	}
}

func TestUpdateQuantityClampsAtCeiling(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 90)
	result := svc.UpdateQuantity(ctx, "s1", "brief", "M", 50)

	if result[0].Qty != MaxQty {
		t.Fatalf("expected clamp at %d, got %d", MaxQty, result[0].Qty)
	}
}

func TestUpdateQuantityMissingKeyIsNoop(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 1)
	result := svc.UpdateQuantity(ctx, "s1", "brief", "XL", 1)

	if len(result) != 1 || result[0].Qty != 1 {
		t.Fatalf("missing key must leave the cart unchanged, got %+v", result)
	}
}

func TestRemoveLineMissingKeyIsNoop(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 1)
	result := svc.RemoveLine(ctx, "s1", "jock", "M")

	if len(result) != 1 {
		t.Fatalf("removing a missing key must be a no-op, got %d lines", len(result))
	}
}

func TestClearEmptiesCart(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 1)
	svc.AddLine(ctx, "s1", "jock", "L", 2)

	if result := svc.Clear(ctx, "s1"); len(result) != 0 {
		t.Fatalf("clear must return an empty cart, got %d lines", len(result))
	}
	if reloaded := svc.Load(ctx, "s1"); len(reloaded) != 0 {
		t.Fatalf("clear must persist, got %d lines", len(reloaded))
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := newTestService(t, store)
	first.AddLine(ctx, "s1", "brief", "M", 2)
	first.AddLine(ctx, "s1", "jock", "L", 1)

	// A fresh service over the same store sees the same cart.
	second := newTestService(t, store)
	restored := second.Load(ctx, "s1")

	want := map[Key]int{
		{ProductID: "brief", Size: "M"}: 2,
		{ProductID: "jock", Size: "L"}:  1,
	}
	if len(restored) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(restored))
	}
	for _, line := range restored {
		if want[line.Key()] != line.Qty {
			t.Fatalf("unexpected line %+v", line)
		}
	}
}

func TestLoadCorruptStorageReturnsEmpty(t *testing.T) {
	store := &fakeStore{
		readFn: func(ctx context.Context, sessionID string) ([]byte, error) {
			return []byte(`{"broken":`), nil
		},
	}
	svc := newTestService(t, store)
	if c := svc.Load(context.Background(), "s1"); len(c) != 0 {
		t.Fatalf("corrupt storage must load as empty cart, got %d lines", len(c))
	}
}

func TestLoadStorageErrorReturnsEmpty(t *testing.T) {
	store := &fakeStore{
		readFn: func(ctx context.Context, sessionID string) ([]byte, error) {
			return nil, errors.New("storage unavailable")
		},
	}
	svc := newTestService(t, store)
	if c := svc.Load(context.Background(), "s1"); len(c) != 0 {
		t.Fatalf("storage error must load as empty cart, got %d lines", len(c))
	}
}

func TestSaveFailureKeepsOperationResult(t *testing.T) {
	var stored []byte
	failWrites := false
	store := &fakeStore{
		readFn: func(ctx context.Context, sessionID string) ([]byte, error) {
			if stored == nil {
				return nil, ErrNotFound
			}
			return stored, nil
		},
		writeFn: func(ctx context.Context, sessionID string, payload []byte) error {
			if failWrites {
				return errors.New("quota exceeded")
			}
			stored = payload
			return nil
		},
	}
	svc := newTestService(t, store)
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 1)
	failWrites = true

	result := svc.AddLine(ctx, "s1", "brief", "M", 1)
	if len(result) != 1 || result[0].Qty != 2 {
		t.Fatalf("persistence failure must not alter the returned cart, got %+v", result)
	}
}

func TestOperationsIsolatedPerSession(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	svc.AddLine(ctx, "s1", "brief", "M", 1)
	svc.AddLine(ctx, "s2", "jock", "L", 3)

	if c := svc.Load(ctx, "s1"); len(c) != 1 || c[0].ProductID != "brief" {
		t.Fatalf("session s1 cart corrupted: %+v", c)
	}
	if c := svc.Load(ctx, "s2"); len(c) != 1 || c[0].ProductID != "jock" {
		t.Fatalf("session s2 cart corrupted: %+v", c)
	}
}
