package repository

import (
	"context"
	"errors"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// DI
func NewProductGormRepository(db *gorm.DB, timeout time.Duration) *ProductGormRepository {
	return &ProductGormRepository{db: db, timeout: timeout}
}

// 削除されていない商品を、カテゴリ/在庫ありで絞って返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx := r.db.WithContext(ctx).Model(&model.Product{})
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.InStock {
		tx = tx.Where("stock > 0")
	}

	products := []model.Product{}
	if err := tx.Order("id asc").Find(&products).Error; err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// IDで商品を取得（カートの再計算では毎回ここを読む）
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	p.ID = 0
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) (model.Product, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var out model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
			"category":    p.Category,
			"price":       p.Price,
			"stock":       p.Stock,
			"updated_at":  time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return tx.First(&out, p.ID).Error
	})
	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}

// 商品削除（deleted_at を入れる）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
