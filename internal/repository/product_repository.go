package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Category string
	InStock  bool
}

// ProductCatalog はカートが使う読み取り専用の口。
// 毎回その時点の価格を返すこと（キャッシュしない）。
type ProductCatalog interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ProductCatalog

	List(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) (model.Product, error)
	SoftDelete(ctx context.Context, id int64) error
}
