package cache

import (
	"context"
	"errors"

	"shopcart/internal/domain/model"
)

// CartCache はGetCartの読み取りを肩代わりするキャッシュ。
// 正はあくまでCartRepository側。
type CartCache interface {
	Get(ctx context.Context, userID int64) (model.Cart, error)
	Set(ctx context.Context, cart model.Cart) error
	Delete(ctx context.Context, userID int64) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop は常にミスするキャッシュ（REDIS_ADDR未設定時）。
type Noop struct{}

func (Noop) Get(context.Context, int64) (model.Cart, error) { return model.Cart{}, ErrCacheMiss }
func (Noop) Set(context.Context, model.Cart) error          { return nil }
func (Noop) Delete(context.Context, int64) error            { return nil }
