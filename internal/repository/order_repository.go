package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

type OrderRepository interface {
	// 注文と明細をまとめて作成
	Create(ctx context.Context, o model.Order) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	FindByID(ctx context.Context, id int64) (model.Order, error)
}
