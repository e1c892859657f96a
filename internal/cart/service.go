package cart

import (
	"context"
	"fmt"

	"github.com/honeybadger0tter/mytropx-demo/internal/catalog"
	"github.com/honeybadger0tter/mytropx-demo/pkg/logger"
)

// Service owns the cart lines for a session: merge/update/remove/clear plus
// the persistence round-trip. Every operation is total: invalid input
// degrades to a no-op and the resulting cart is always returned.
type Service interface {
	Load(ctx context.Context, sessionID string) Cart
	AddLine(ctx context.Context, sessionID, productID, size string, qty int) Cart
	UpdateQuantity(ctx context.Context, sessionID, productID, size string, delta int) Cart
	RemoveLine(ctx context.Context, sessionID, productID, size string) Cart
	Clear(ctx context.Context, sessionID string) Cart
}

type service struct {
	store   Store
	catalog catalog.Provider
	logg    *logger.Logger
}

// NewService builds the cart ledger backed by the provided store and
// catalog snapshot.
func NewService(store Store, provider catalog.Provider, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if provider == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	return &service{store: store, catalog: provider, logg: logg}, nil
}

// Load restores the session's cart. Missing, corrupt, or non-array stored
// data initializes to an empty cart.
func (s *service) Load(ctx context.Context, sessionID string) Cart {
	raw, err := s.store.Read(ctx, sessionID)
	if err != nil {
		if err != ErrNotFound && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart load failed, starting empty")
		}
		return Cart{}
	}
	return Unmarshal(raw)
}

// AddLine resolves the product, defaults the size, and merges into the
// existing line when the (product, size) key matches. Unknown products are
// a silent no-op.
func (s *service) AddLine(ctx context.Context, sessionID, productID, size string, qty int) Cart {
	current := s.Load(ctx, sessionID)

	product, ok := s.catalog.Get(productID)
	if !ok {
		return current
	}

	if size == "" && len(product.Sizes) > 0 {
		size = product.Sizes[0]
	}

	if qty < MinQty {
		qty = MinQty
	}

	key := Key{ProductID: productID, Size: size}
	if idx := current.FindIndex(key); idx >= 0 {
		merged := current[idx].Qty + qty
		if merged > MaxQty {
			merged = MaxQty
		}
		current[idx].Qty = merged
	} else {
		current = append(current, Line{ProductID: productID, Size: size, Qty: qty})
	}

	s.save(ctx, sessionID, current)
	return current
}

// UpdateQuantity applies a signed delta to the matching line. A result at
// or below zero removes the line; otherwise the quantity clamps at the
// ceiling. Absent keys are a no-op.
func (s *service) UpdateQuantity(ctx context.Context, sessionID, productID, size string, delta int) Cart {
	current := s.Load(ctx, sessionID)

	key := Key{ProductID: productID, Size: size}
	idx := current.FindIndex(key)
	if idx < 0 {
		return current
	}

	next := current[idx].Qty + delta
	if next <= 0 {
		current = append(current[:idx], current[idx+1:]...)
	} else {
		current[idx].Qty = clampQty(next)
	}

	s.save(ctx, sessionID, current)
	return current
}

// RemoveLine drops the line matching the key, if present.
func (s *service) RemoveLine(ctx context.Context, sessionID, productID, size string) Cart {
	current := s.Load(ctx, sessionID)

	key := Key{ProductID: productID, Size: size}
	idx := current.FindIndex(key)
	if idx < 0 {
		return current
	}

	current = append(current[:idx], current[idx+1:]...)
	s.save(ctx, sessionID, current)
	return current
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, sessionID string) Cart {
	empty := Cart{}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.warnPersist(ctx, err)
	}
	return empty
}

// save persists the cart best-effort. Storage failure is swallowed: the
// cart of the current operation stays authoritative for the session.
func (s *service) save(ctx context.Context, sessionID string, current Cart) {
	payload, err := current.Marshal()
	if err != nil {
		s.warnPersist(ctx, err)
		return
	}
	if err := s.store.Write(ctx, sessionID, payload); err != nil {
		s.warnPersist(ctx, err)
	}
}

func (s *service) warnPersist(ctx context.Context, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart persist failed, in-memory cart remains authoritative")
}
