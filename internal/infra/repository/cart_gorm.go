package repository

import (
	"context"
	"errors"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// DI
func NewCartGormRepository(db *gorm.DB, timeout time.Duration) *CartGormRepository {
	return &CartGormRepository{db: db, timeout: timeout}
}

// ユーザーのカートを明細込みで取得
func (r *CartGormRepository) Load(ctx context.Context, userID int64) (model.Cart, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_id asc") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	return cart, nil
}

// Save はカート行を version 付きで更新し、明細を入れ替える（1トランザクション）。
func (r *CartGormRepository) Save(ctx context.Context, cart model.Cart, expectedVersion int64) (model.Cart, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now()
	cart.Version = expectedVersion + 1
	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = now
	}
	items := make([]model.CartItem, len(cart.Items))
	for i, it := range cart.Items {
		it.UserID = cart.UserID
		items[i] = it
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if expectedVersion == 0 {
			// 新規作成：既にあれば競合
			if cart.CreatedAt.IsZero() {
				cart.CreatedAt = now
			}
			row := cart
			row.Items = nil
			if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
				if isUniqueViolation(err) {
					return repo.ErrVersionConflict
				}
				return err
			}
		} else {
			res := tx.Model(&model.Cart{}).
				Where("user_id = ? AND version = ?", cart.UserID, expectedVersion).
				Updates(map[string]interface{}{
					"total_price": cart.TotalPrice,
					"version":     cart.Version,
					"updated_at":  cart.UpdatedAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrVersionConflict
			}
			if err := tx.Where("user_id = ?", cart.UserID).Delete(&model.CartItem{}).Error; err != nil {
				return err
			}
		}

		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Cart{}, err
	}

	cart.Items = items
	return cart, nil
}

// 23505 unique_violation
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
