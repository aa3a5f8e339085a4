package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"shopcart/internal/cache"
	"shopcart/internal/domain/model"
	"shopcart/internal/events"
	"shopcart/internal/lock"
	repo "shopcart/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const DefaultCartMaxRetries = 5

// まとめた読み込みは呼び出し元のキャンセルと切り離し、この時間で打ち切る
const sharedReadTimeout = 5 * time.Second

// CartUsecase はカート集約。明細の追加・変更・削除のたびに
// 商品カタログの現在価格で合計を計算し直して保存する。
//
// 同じユーザーへの更新はプロセス内ではKeyedMutexで1つずつ、
// プロセスをまたぐ競合は version による楽観ロック＋再試行で防ぐ。
type CartUsecase struct {
	carts     repo.CartRepository
	catalog   repo.ProductCatalog
	cache     cache.CartCache
	publisher events.Publisher
	log       zerolog.Logger

	locks      *lock.KeyedMutex
	reads      singleflight.Group
	maxRetries uint64
	now        func() time.Time
}

// DI（cache / publisher は nil 可）
func NewCartUsecase(
	carts repo.CartRepository,
	catalog repo.ProductCatalog,
	cartCache cache.CartCache,
	publisher events.Publisher,
	log zerolog.Logger,
	maxRetries int,
) *CartUsecase {
	if cartCache == nil {
		cartCache = cache.Noop{}
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if maxRetries < 0 {
		maxRetries = DefaultCartMaxRetries
	}
	return &CartUsecase{
		carts:      carts,
		catalog:    catalog,
		cache:      cartCache,
		publisher:  publisher,
		log:        log,
		locks:      lock.NewKeyedMutex(),
		maxRetries: uint64(maxRetries),
		now:        time.Now,
	}
}

// GetOrCreate は既存カートを返し、無ければ空のカートを作って保存する。
func (u *CartUsecase) GetOrCreate(ctx context.Context, userID int64) (model.Cart, error) {
	if userID <= 0 {
		return model.Cart{}, invalidArg("user id must be positive")
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	var (
		out     model.Cart
		created bool
	)
	err := u.retry(ctx, func() error {
		cart, err := u.carts.Load(ctx, userID)
		if err == nil {
			out = cart
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return backoff.Permanent(storageErr("load cart", err))
		}

		saved, err := u.save(ctx, u.newCart(userID), 0)
		if err != nil {
			return err
		}
		out, created = saved, true
		return nil
	})
	if err != nil {
		return model.Cart{}, err
	}

	if created {
		u.afterWrite(ctx, events.CartCreated, 0, out)
	}
	return out, nil
}

// GetCart はカートを返す。無ければ ErrCartNotFound（作らない）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (model.Cart, error) {
	if userID <= 0 {
		return model.Cart{}, invalidArg("user id must be positive")
	}

	cached, err := u.cache.Get(ctx, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		u.log.Warn().Int64("user_id", userID).Err(err).Msg("cart cache get failed")
	}

	// 同じユーザーの同時ミスはDB読み込み1回にまとめる。
	// 先頭の呼び出し元がキャンセルしても、相乗りした呼び出し元は巻き込まない。
	shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
	ch := u.reads.DoChan(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		defer cancel()

		// 更新途中の値をキャッシュに入れないよう、更新と同じロックの中で読む
		unlock := u.locks.Lock(userID)
		defer unlock()

		cart, err := u.carts.Load(shared, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		if err != nil {
			return nil, storageErr("load cart", err)
		}

		if err := u.cache.Set(shared, cart); err != nil {
			u.log.Warn().Int64("user_id", userID).Err(err).Msg("cart cache set failed")
		}
		return cart, nil
	})

	select {
	case res := <-ch:
		// 相乗りした場合は自分の shared は使われない
		cancel()
		if res.Err != nil {
			return model.Cart{}, res.Err
		}
		return res.Val.(model.Cart).Clone(), nil
	case <-ctx.Done():
		return model.Cart{}, ctx.Err()
	}
}

// AddItem はカートに追加（同一商品は数量加算）。カートが無ければ作る。
func (u *CartUsecase) AddItem(ctx context.Context, userID, productID, quantity int64) (model.Cart, error) {
	if err := validateIDs(userID, productID); err != nil {
		return model.Cart{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return model.Cart{}, err
	}

	return u.mutate(ctx, userID, true, events.CartItemAdded, productID, func(c *model.Cart) error {
		// 商品が無ければカートは変更しない
		if err := u.ensureProduct(ctx, productID); err != nil {
			return err
		}

		if i := c.IndexOf(productID); i >= 0 {
			if c.Items[i].Quantity > model.MaxItemQuantity-quantity {
				return invalidArg("quantity must be <= %d", model.MaxItemQuantity)
			}
			c.Items[i].Quantity += quantity
			return nil
		}
		c.Items = append(c.Items, model.CartItem{UserID: userID, ProductID: productID, Quantity: quantity})
		return nil
	})
}

// UpdateItemQuantity は既存明細の数量を上書きする。
func (u *CartUsecase) UpdateItemQuantity(ctx context.Context, userID, productID, quantity int64) (model.Cart, error) {
	if err := validateIDs(userID, productID); err != nil {
		return model.Cart{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return model.Cart{}, err
	}

	return u.mutate(ctx, userID, false, events.CartItemUpdated, productID, func(c *model.Cart) error {
		i := c.IndexOf(productID)
		if i < 0 {
			return fmt.Errorf("%w: product_id=%d", ErrItemNotFound, productID)
		}
		if err := u.ensureProduct(ctx, productID); err != nil {
			return err
		}
		c.Items[i].Quantity = quantity
		return nil
	})
}

// RemoveItem は明細を1行削除する。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID, productID int64) (model.Cart, error) {
	if err := validateIDs(userID, productID); err != nil {
		return model.Cart{}, err
	}

	return u.mutate(ctx, userID, false, events.CartItemRemoved, productID, func(c *model.Cart) error {
		i := c.IndexOf(productID)
		if i < 0 {
			return fmt.Errorf("%w: product_id=%d", ErrItemNotFound, productID)
		}
		// カタログとカートのずれを検知する
		if err := u.ensureProduct(ctx, productID); err != nil {
			return err
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	})
}

// ClearCart は明細を全部消す（カート自体は残る）。
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (model.Cart, error) {
	if userID <= 0 {
		return model.Cart{}, invalidArg("user id must be positive")
	}

	return u.mutate(ctx, userID, false, events.CartCleared, 0, func(c *model.Cart) error {
		c.Items = []model.CartItem{}
		return nil
	})
}

// PlaceFunc はチェックアウト時に1回だけ呼ばれる。
// products は合計の計算に使った商品（明細の ProductID ごと）。
type PlaceFunc func(ctx context.Context, cart model.Cart, products map[int64]model.Product) error

// Checkout はカートを現在価格で確定して place に渡し、カートを空にする。
// 先に空のカートを保存してから place を呼び、place が失敗したら明細を戻す。
func (u *CartUsecase) Checkout(ctx context.Context, userID int64, place PlaceFunc) (model.Cart, error) {
	if userID <= 0 {
		return model.Cart{}, invalidArg("user id must be positive")
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	var (
		snapshot, cleared model.Cart
		products          map[int64]model.Product
	)
	err := u.retry(ctx, func() error {
		cart, expected, err := u.loadForUpdate(ctx, userID, false)
		if err != nil {
			return backoff.Permanent(err)
		}
		if cart.IsEmpty() {
			return backoff.Permanent(ErrEmptyCart)
		}
		priced, err := u.reprice(ctx, &cart)
		if err != nil {
			return backoff.Permanent(err)
		}

		empty := cart.Clone()
		empty.Items = []model.CartItem{}
		empty.TotalPrice = decimal.Zero

		saved, err := u.save(ctx, empty, expected)
		if err != nil {
			return err
		}
		snapshot, cleared, products = cart, saved, priced
		return nil
	})
	if err != nil {
		return model.Cart{}, err
	}

	// 空で保存した時点でキャッシュは古い（戻しに失敗しても残さない）
	u.invalidate(ctx, userID)

	if err := place(ctx, snapshot.Clone(), products); err != nil {
		if rerr := u.restore(ctx, snapshot); rerr != nil {
			u.log.Error().Int64("user_id", userID).Err(rerr).Msg("restore cart after failed checkout")
			return model.Cart{}, errors.Join(err, rerr)
		}
		return model.Cart{}, err
	}

	u.afterWrite(ctx, events.CartCheckedOut, 0, cleared)
	return snapshot, nil
}

// 失敗したチェックアウトの明細をカートに戻す（呼び出し側のキャンセルには従わない）。
func (u *CartUsecase) restore(ctx context.Context, snapshot model.Cart) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var out model.Cart
	err := u.retry(ctx, func() error {
		cart, expected, err := u.loadForUpdate(ctx, snapshot.UserID, true)
		if err != nil {
			return backoff.Permanent(err)
		}
		for _, it := range snapshot.Items {
			if i := cart.IndexOf(it.ProductID); i >= 0 {
				cart.Items[i].Quantity += it.Quantity
			} else {
				cart.Items = append(cart.Items, it)
			}
		}
		if _, err := u.reprice(ctx, &cart); err != nil {
			return backoff.Permanent(err)
		}
		saved, err := u.save(ctx, cart, expected)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return err
	}
	u.afterWrite(ctx, events.CartItemAdded, 0, out)
	return nil
}

// mutate は「読む→変更→再計算→保存」をユーザー単位で直列に実行する。
func (u *CartUsecase) mutate(
	ctx context.Context,
	userID int64,
	create bool,
	evType events.CartEventType,
	productID int64,
	apply func(c *model.Cart) error,
) (model.Cart, error) {
	unlock := u.locks.Lock(userID)
	defer unlock()

	var out model.Cart
	err := u.retry(ctx, func() error {
		cart, expected, err := u.loadForUpdate(ctx, userID, create)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := apply(&cart); err != nil {
			return backoff.Permanent(err)
		}
		if _, err := u.reprice(ctx, &cart); err != nil {
			return backoff.Permanent(err)
		}

		saved, err := u.save(ctx, cart, expected)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return model.Cart{}, err
	}

	u.afterWrite(ctx, evType, productID, out)
	return out, nil
}

// 保存済みカートと、保存時に期待するversionを返す。
func (u *CartUsecase) loadForUpdate(ctx context.Context, userID int64, create bool) (model.Cart, int64, error) {
	cart, err := u.carts.Load(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		if !create {
			return model.Cart{}, 0, ErrCartNotFound
		}
		return u.newCart(userID), 0, nil
	}
	if err != nil {
		return model.Cart{}, 0, storageErr("load cart", err)
	}
	return cart.Clone(), cart.Version, nil
}

// reprice は全明細を現在価格で計算し直す（キャッシュした価格は使わない）。
// 計算に使った商品を返す。
func (u *CartUsecase) reprice(ctx context.Context, c *model.Cart) (map[int64]model.Product, error) {
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].ProductID < c.Items[j].ProductID })

	products := make(map[int64]model.Product, len(c.Items))
	total := decimal.Zero
	for i := range c.Items {
		c.Items[i].UserID = c.UserID

		p, err := u.catalog.FindByID(ctx, c.Items[i].ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrProductNotFound, c.Items[i].ProductID)
		}
		if err != nil {
			return nil, storageErr("find product", err)
		}
		products[p.ID] = p
		total = total.Add(p.Price.Mul(decimal.NewFromInt(c.Items[i].Quantity)))
	}
	if total.GreaterThanOrEqual(model.MaxTotalPrice) {
		return nil, invalidArg("cart total must be < %s", model.MaxTotalPrice.String())
	}
	c.TotalPrice = total
	return products, nil
}

func (u *CartUsecase) ensureProduct(ctx context.Context, productID int64) error {
	_, err := u.catalog.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: id=%d", ErrProductNotFound, productID)
	}
	if err != nil {
		return storageErr("find product", err)
	}
	return nil
}

// save の version 競合だけは再試行対象としてそのまま返す。
func (u *CartUsecase) save(ctx context.Context, c model.Cart, expected int64) (model.Cart, error) {
	// キャンセル済みなら書かずに終わる
	if err := ctx.Err(); err != nil {
		return model.Cart{}, backoff.Permanent(err)
	}

	c.UpdatedAt = u.now()
	saved, err := u.carts.Save(ctx, c, expected)
	if errors.Is(err, repo.ErrVersionConflict) {
		u.log.Debug().Int64("user_id", c.UserID).Int64("expected_version", expected).Msg("cart version conflict")
		return model.Cart{}, err
	}
	if err != nil {
		return model.Cart{}, backoff.Permanent(storageErr("save cart", err))
	}
	return saved, nil
}

func (u *CartUsecase) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, u.maxRetries), ctx))
	if errors.Is(err, repo.ErrVersionConflict) {
		return storageErr("save cart", fmt.Errorf("retries exhausted: %w", err))
	}
	return err
}

// キャッシュを消す（失敗はログだけ）。
func (u *CartUsecase) invalidate(ctx context.Context, userID int64) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := u.cache.Delete(bg, userID); err != nil {
		u.log.Warn().Int64("user_id", userID).Err(err).Msg("cart cache invalidate failed")
	}
}

// 保存後の後始末。キャッシュを消してイベントを送る（どちらも失敗はログだけ）。
func (u *CartUsecase) afterWrite(ctx context.Context, evType events.CartEventType, productID int64, c model.Cart) {
	u.invalidate(ctx, c.UserID)

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	ev := events.CartEvent{
		Type:       evType,
		UserID:     c.UserID,
		ProductID:  productID,
		Items:      c.Items,
		TotalPrice: c.TotalPrice,
		Version:    c.Version,
		OccurredAt: u.now().UTC(),
	}
	if err := u.publisher.PublishCartEvent(bg, ev); err != nil {
		u.log.Warn().Int64("user_id", c.UserID).Str("type", string(evType)).Err(err).Msg("cart event publish failed")
	}

	u.log.Info().
		Int64("user_id", c.UserID).
		Str("event", string(evType)).
		Int("items", len(c.Items)).
		Str("total_price", c.TotalPrice.String()).
		Int64("version", c.Version).
		Msg("cart updated")
}

func (u *CartUsecase) newCart(userID int64) model.Cart {
	now := u.now()
	return model.Cart{
		UserID:     userID,
		Items:      []model.CartItem{},
		TotalPrice: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func validateQuantity(quantity int64) error {
	if quantity < 1 {
		return invalidArg("quantity must be >= 1")
	}
	if quantity > model.MaxItemQuantity {
		return invalidArg("quantity must be <= %d", model.MaxItemQuantity)
	}
	return nil
}

func validateIDs(userID, productID int64) error {
	if userID <= 0 {
		return invalidArg("user id must be positive")
	}
	if productID <= 0 {
		return invalidArg("product id must be positive")
	}
	return nil
}
