package validator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"shopcart/internal/domain/model"

	"github.com/shopspring/decimal"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

// POST /cart/:userId のボディ
type AddItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// PATCH /cart/:userId/item/:productId のボディ
type UpdateQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

// POST/PUT /products のボディ
type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
}

// POST /orders のボディ（カートを通さない注文）
type CreateOrderRequest struct {
	UserID   int64              `json:"userId"`
	Products []OrderLineRequest `json:"products"`
}

type OrderLineRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// ParseID はパスの :id を正の整数として読む。
func ParseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", ErrInvalidInput, name)
	}
	return id, nil
}

// ParseBool はクエリの真偽値。空・"true"以外は false。
func ParseBool(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// カート追加の入力を検証
func ValidateAddItem(req AddItemRequest) error {
	if req.ProductID <= 0 {
		return fmt.Errorf("%w: productId required", ErrInvalidInput)
	}
	return validateQuantity(req.Quantity)
}

// 数量変更の入力を検証
func ValidateUpdateQuantity(req UpdateQuantityRequest) error {
	return validateQuantity(req.Quantity)
}

// 注文の入力を検証（明細は1件以上）
func ValidateCreateOrder(req CreateOrderRequest) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userId required", ErrInvalidInput)
	}
	if len(req.Products) == 0 {
		return fmt.Errorf("%w: products required", ErrInvalidInput)
	}
	for i, l := range req.Products {
		if l.ProductID <= 0 {
			return fmt.Errorf("%w: products[%d].productId required", ErrInvalidInput, i)
		}
		if err := validateQuantity(l.Quantity); err != nil {
			return fmt.Errorf("products[%d]: %w", i, err)
		}
	}
	return nil
}

func validateQuantity(q int64) error {
	if q < 1 {
		return fmt.Errorf("%w: quantity must be >= 1", ErrInvalidInput)
	}
	if q > model.MaxItemQuantity {
		return fmt.Errorf("%w: quantity must be <= %d", ErrInvalidInput, model.MaxItemQuantity)
	}
	return nil
}

// 商品の入力を検証
func ValidateProduct(req ProductRequest) error {
	// 必須チェック
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if req.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidInput)
	}
	if req.Price.GreaterThanOrEqual(model.MaxUnitPrice) {
		return fmt.Errorf("%w: price must be < %s", ErrInvalidInput, model.MaxUnitPrice.String())
	}
	// 小数点以下2桁まで（numeric(12,2)）
	if !req.Price.Equal(req.Price.Truncate(2)) {
		return fmt.Errorf("%w: price must have at most 2 decimal places", ErrInvalidInput)
	}
	if req.Stock < 0 {
		return fmt.Errorf("%w: stock must be >= 0", ErrInvalidInput)
	}
	return nil
}
