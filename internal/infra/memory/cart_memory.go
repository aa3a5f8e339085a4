package memory

import (
	"context"
	"sync"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"
)

// CartStore はversion付きのカート保存先。Saveはロック内での差し替えなので原子的。
type CartStore struct {
	mu    sync.RWMutex
	carts map[int64]model.Cart
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[int64]model.Cart)}
}

func (s *CartStore) Load(ctx context.Context, userID int64) (model.Cart, error) {
	if err := ctx.Err(); err != nil {
		return model.Cart{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *CartStore) Save(ctx context.Context, cart model.Cart, expectedVersion int64) (model.Cart, error) {
	if err := ctx.Err(); err != nil {
		return model.Cart{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.carts[cart.UserID]
	switch {
	case !ok && expectedVersion != 0:
		return model.Cart{}, repo.ErrVersionConflict
	case ok && cur.Version != expectedVersion:
		return model.Cart{}, repo.ErrVersionConflict
	}

	next := cart.Clone()
	if ok {
		next.CreatedAt = cur.CreatedAt
	}
	next.Version = expectedVersion + 1
	s.carts[cart.UserID] = next
	return next.Clone(), nil
}
