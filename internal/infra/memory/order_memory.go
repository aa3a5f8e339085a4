package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"
)

type OrderStore struct {
	mu         sync.RWMutex
	orders     map[int64]model.Order
	nextID     int64
	nextItemID int64
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[int64]model.Order)}
}

func (s *OrderStore) Create(_ context.Context, o model.Order) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	o.ID = s.nextID
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now

	items := make([]model.OrderItem, len(o.Items))
	for i, it := range o.Items {
		s.nextItemID++
		it.ID = s.nextItemID
		it.OrderID = o.ID
		it.CreatedAt = now
		items[i] = it
	}
	o.Items = items

	s.orders[o.ID] = o
	return copyOrder(o), nil
}

func (s *OrderStore) ListByUserID(_ context.Context, userID int64) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	// 新しい順
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *OrderStore) FindByID(_ context.Context, id int64) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return copyOrder(o), nil
}

func copyOrder(o model.Order) model.Order {
	items := make([]model.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
