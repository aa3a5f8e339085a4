package events

import (
	"context"
	"time"

	"shopcart/internal/domain/model"

	"github.com/shopspring/decimal"
)

type CartEventType string

const (
	CartCreated     CartEventType = "cart.created"
	CartItemAdded   CartEventType = "cart.item_added"
	CartItemUpdated CartEventType = "cart.item_updated"
	CartItemRemoved CartEventType = "cart.item_removed"
	CartCleared     CartEventType = "cart.cleared"
	CartCheckedOut  CartEventType = "cart.checked_out"
)

// CartEvent は保存が確定したカートの変更通知。
type CartEvent struct {
	ID         string           `json:"id"`
	Type       CartEventType    `json:"type"`
	UserID     int64            `json:"userId"`
	ProductID  int64            `json:"productId,omitempty"`
	Items      []model.CartItem `json:"items"`
	TotalPrice decimal.Decimal  `json:"totalPrice"`
	Version    int64            `json:"version"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// Publisher の失敗は呼び出し側でログに残すだけ（カートの保存は確定済み）。
type Publisher interface {
	PublishCartEvent(ctx context.Context, ev CartEvent) error
	Close() error
}

// Noop は何も送らない（KAFKA_BROKERS未設定時）。
type Noop struct{}

func (Noop) PublishCartEvent(context.Context, CartEvent) error { return nil }
func (Noop) Close() error                                      { return nil }
