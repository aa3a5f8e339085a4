package repository

import (
	"context"
	"errors"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewOrderGormRepository(db *gorm.DB, timeout time.Duration) *OrderGormRepository {
	return &OrderGormRepository{db: db, timeout: timeout}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items", preloadItems).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// 新しい順
func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	items := []model.Order{}
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

// 注文と明細をまとめて作成
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	order.ID = 0
	items := make([]model.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	order.Items = items
	return order, nil
}
