package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	products repo.ProductRepository
	log      zerolog.Logger
}

// DI
func NewProductUsecase(products repo.ProductRepository, log zerolog.Logger) *ProductUsecase {
	return &ProductUsecase{products: products, log: log}
}

// GET /products の入力
type ListProductsInput struct {
	Category string
	InStock  bool
}

// 作成・更新の入力
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int64
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) ([]model.Product, error) {
	if len(in.Category) > 100 {
		return nil, invalidArg("category too long")
	}

	items, err := u.products.List(ctx, repo.ProductListQuery{
		Category: strings.TrimSpace(in.Category),
		InStock:  in.InStock,
	})
	if err != nil {
		return nil, storageErr("list products", err)
	}
	if items == nil {
		items = []model.Product{}
	}
	return items, nil
}

func (u *ProductUsecase) Get(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, invalidArg("invalid product id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, fmt.Errorf("%w: id=%d", ErrProductNotFound, productID)
	}
	if err != nil {
		return model.Product{}, storageErr("find product", err)
	}
	return p, nil
}

func (u *ProductUsecase) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	now := time.Now()
	p, err := u.products.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Product{}, storageErr("create product", err)
	}

	u.log.Info().Int64("product_id", p.ID).Str("price", p.Price.String()).Msg("product created")
	return p, nil
}

// Update は商品を上書きする。価格変更は以降のカート更新から反映される。
func (u *ProductUsecase) Update(ctx context.Context, productID int64, in ProductInput) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, invalidArg("invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	p, err := u.products.Update(ctx, model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
		UpdatedAt:   time.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, fmt.Errorf("%w: id=%d", ErrProductNotFound, productID)
	}
	if err != nil {
		return model.Product{}, storageErr("update product", err)
	}

	u.log.Info().Int64("product_id", p.ID).Str("price", p.Price.String()).Msg("product updated")
	return p, nil
}

// Delete は論理削除。削除済み商品を含むカートは以降の更新で ErrProductNotFound になる。
func (u *ProductUsecase) Delete(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return invalidArg("invalid product id")
	}

	err := u.products.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: id=%d", ErrProductNotFound, productID)
	}
	if err != nil {
		return storageErr("delete product", err)
	}

	u.log.Info().Int64("product_id", productID).Msg("product deleted")
	return nil
}

func validateProductInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidArg("name required")
	}
	if len(in.Name) > 255 {
		return invalidArg("name too long")
	}
	if len(in.Category) > 100 {
		return invalidArg("category too long")
	}
	if in.Price.IsNegative() {
		return invalidArg("price must be >= 0")
	}
	if in.Price.GreaterThanOrEqual(model.MaxUnitPrice) {
		return invalidArg("price must be < %s", model.MaxUnitPrice.String())
	}
	if in.Stock < 0 {
		return invalidArg("stock must be >= 0")
	}
	return nil
}
