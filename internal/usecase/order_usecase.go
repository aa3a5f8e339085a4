package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	carts   *CartUsecase
	catalog repo.ProductCatalog
	orders  repo.OrderRepository
	log     zerolog.Logger
	now     func() time.Time
}

func NewOrderUsecase(carts *CartUsecase, catalog repo.ProductCatalog, orders repo.OrderRepository, log zerolog.Logger) *OrderUsecase {
	return &OrderUsecase{carts: carts, catalog: catalog, orders: orders, log: log, now: time.Now}
}

// 注文明細の指定（カートを通さない注文用）
type OrderLineInput struct {
	ProductID int64
	Quantity  int64
}

type CreateOrderInput struct {
	UserID int64
	Lines  []OrderLineInput
}

// PlaceOrder はカートの中身で注文を作り、カートを空にする。
// 注文明細にはカートの合計を計算したときの商品名と単価を残す。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, invalidArg("user id must be positive")
	}

	var out model.Order
	_, err := u.carts.Checkout(ctx, userID, func(ctx context.Context, cart model.Cart, products map[int64]model.Product) error {
		items := make([]model.OrderItem, 0, len(cart.Items))
		for _, ci := range cart.Items {
			p, ok := products[ci.ProductID]
			if !ok {
				return fmt.Errorf("%w: id=%d", ErrProductNotFound, ci.ProductID)
			}
			items = append(items, snapshotItem(p, ci.Quantity))
		}

		o, err := u.create(ctx, userID, items, cart.TotalPrice)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	u.logPlaced(out, "cart")
	return out, nil
}

// CreateOrder は指定された明細で注文を作る（カートは変更しない）。
// 同じ商品が複数回あれば数量をまとめる。
func (u *OrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (model.Order, error) {
	if in.UserID <= 0 {
		return model.Order{}, invalidArg("user id must be positive")
	}
	if len(in.Lines) == 0 {
		return model.Order{}, invalidArg("products required")
	}

	var (
		order []int64
		qty   = make(map[int64]int64, len(in.Lines))
	)
	for _, l := range in.Lines {
		if l.ProductID <= 0 {
			return model.Order{}, invalidArg("product id must be positive")
		}
		if err := validateQuantity(l.Quantity); err != nil {
			return model.Order{}, err
		}
		if _, ok := qty[l.ProductID]; !ok {
			order = append(order, l.ProductID)
		}
		qty[l.ProductID] += l.Quantity
		if qty[l.ProductID] > model.MaxItemQuantity {
			return model.Order{}, invalidArg("quantity must be <= %d", model.MaxItemQuantity)
		}
	}

	//スナップショット
	items := make([]model.OrderItem, 0, len(order))
	total := decimal.Zero
	for _, id := range order {
		p, err := u.catalog.FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Order{}, fmt.Errorf("%w: id=%d", ErrProductNotFound, id)
		}
		if err != nil {
			return model.Order{}, storageErr("find product", err)
		}
		it := snapshotItem(p, qty[id])
		items = append(items, it)
		total = total.Add(it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity)))
	}
	if total.GreaterThanOrEqual(model.MaxTotalPrice) {
		return model.Order{}, invalidArg("order total must be < %s", model.MaxTotalPrice.String())
	}

	out, err := u.create(ctx, in.UserID, items, total)
	if err != nil {
		return model.Order{}, err
	}

	u.logPlaced(out, "direct")
	return out, nil
}

// ListOrders はユーザーの注文（新しい順）。無ければ空配列。
func (u *OrderUsecase) ListOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	if userID <= 0 {
		return nil, invalidArg("user id must be positive")
	}

	orders, err := u.orders.ListByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// GetOrder は注文1件。他人の注文は見えない（404）。
func (u *OrderUsecase) GetOrder(ctx context.Context, userID, orderID int64) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, invalidArg("user id must be positive")
	}
	if orderID <= 0 {
		return model.Order{}, invalidArg("invalid order id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, fmt.Errorf("%w: id=%d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return model.Order{}, storageErr("find order", err)
	}
	if o.UserID != userID {
		return model.Order{}, fmt.Errorf("%w: id=%d", ErrOrderNotFound, orderID)
	}
	return o, nil
}

// 注文作成（ステータスはPENDING）
func (u *OrderUsecase) create(ctx context.Context, userID int64, items []model.OrderItem, total decimal.Decimal) (model.Order, error) {
	now := u.now()
	o, err := u.orders.Create(ctx, model.Order{
		UserID:     userID,
		Status:     model.OrderStatusPending,
		TotalPrice: total,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return model.Order{}, storageErr("create order", err)
	}
	return o, nil
}

func (u *OrderUsecase) logPlaced(o model.Order, source string) {
	u.log.Info().
		Int64("order_id", o.ID).
		Int64("user_id", o.UserID).
		Str("source", source).
		Int("items", len(o.Items)).
		Str("total_price", o.TotalPrice.String()).
		Msg("order placed")
}

func snapshotItem(p model.Product, quantity int64) model.OrderItem {
	return model.OrderItem{
		ProductID:           p.ID,
		ProductNameSnapshot: p.Name,
		UnitPriceSnapshot:   p.Price,
		Quantity:            quantity,
	}
}
