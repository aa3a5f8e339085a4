package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"
)

// ProductStore はプロセス内の商品カタログ。値はコピーで出し入れする。
type ProductStore struct {
	mu     sync.RWMutex
	items  map[int64]model.Product
	nextID int64
}

// NewProductStore はIDの無い商品に、明示されたIDの最大値より後ろの番号を振る。
func NewProductStore(seed ...model.Product) *ProductStore {
	s := &ProductStore{items: make(map[int64]model.Product)}
	for _, p := range seed {
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	for _, p := range seed {
		if p.ID <= 0 {
			s.nextID++
			p.ID = s.nextID
		}
		s.items[p.ID] = p
	}
	return s
}

// seedFile は元のフラットファイルDBと同じ形 {"products": [...]}
type seedFile struct {
	Products []model.Product `json:"products"`
}

// LoadSeedFile はJSONファイルから商品を読み込む。
func LoadSeedFile(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	seen := make(map[int64]bool, len(f.Products))
	for _, p := range f.Products {
		if p.Price.IsNegative() || p.Stock < 0 {
			return nil, fmt.Errorf("parse seed file: product %d has negative price or stock", p.ID)
		}
		if p.ID < 0 {
			return nil, fmt.Errorf("parse seed file: product id %d must be positive", p.ID)
		}
		if p.ID == 0 {
			continue
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("parse seed file: duplicate product id %d", p.ID)
		}
		seen[p.ID] = true
	}
	return f.Products, nil
}

func (s *ProductStore) FindByID(_ context.Context, id int64) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (s *ProductStore) List(_ context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, 0, len(s.items))
	for _, p := range s.items {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.InStock && p.Stock <= 0 {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ProductStore) Create(_ context.Context, p model.Product) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.items[p.ID] = p
	return p, nil
}

func (s *ProductStore) Update(_ context.Context, p model.Product) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[p.ID]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now()
	s.items[p.ID] = p
	return p, nil
}

func (s *ProductStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.items, id)
	return nil
}
