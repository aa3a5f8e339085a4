package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartsCollection = "carts"

type cartDoc struct {
	UserID     int64                `bson:"user_id"`
	Items      []cartItemDoc        `bson:"items"`
	TotalPrice primitive.Decimal128 `bson:"total_price"`
	Version    int64                `bson:"version"`
	CreatedAt  time.Time            `bson:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at"`
}

type cartItemDoc struct {
	ProductID int64 `bson:"product_id"`
	Quantity  int64 `bson:"quantity"`
}

// CartMongoRepository はカート1件を1ドキュメントで持つ。
type CartMongoRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewCartMongoRepository(db *mongo.Database, timeout time.Duration) *CartMongoRepository {
	return &CartMongoRepository{
		collection: db.Collection(cartsCollection),
		timeout:    timeout,
	}
}

// CreateIndexes は user_id の一意インデックスを作る（起動時に1回）。
func (r *CartMongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create cart indexes: %w", err)
	}
	return nil
}

func (r *CartMongoRepository) Load(ctx context.Context, userID int64) (model.Cart, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc cartDoc
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, fmt.Errorf("find cart: %w", err)
	}
	return fromDoc(doc)
}

// Save は version が一致するときだけ置き換える（0なら新規作成）。
func (r *CartMongoRepository) Save(ctx context.Context, cart model.Cart, expectedVersion int64) (model.Cart, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	cart.Version = expectedVersion + 1
	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = now
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}

	doc, err := toDoc(cart)
	if err != nil {
		return model.Cart{}, err
	}

	if expectedVersion == 0 {
		if _, err := r.collection.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return model.Cart{}, repo.ErrVersionConflict
			}
			return model.Cart{}, fmt.Errorf("insert cart: %w", err)
		}
	} else {
		res, err := r.collection.ReplaceOne(ctx, bson.M{"user_id": cart.UserID, "version": expectedVersion}, doc)
		if err != nil {
			return model.Cart{}, fmt.Errorf("replace cart: %w", err)
		}
		if res.MatchedCount == 0 {
			return model.Cart{}, repo.ErrVersionConflict
		}
	}

	return fromDoc(doc)
}

func (r *CartMongoRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func toDoc(c model.Cart) (cartDoc, error) {
	total, err := primitive.ParseDecimal128(c.TotalPrice.String())
	if err != nil {
		return cartDoc{}, fmt.Errorf("encode total price: %w", err)
	}

	items := make([]cartItemDoc, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemDoc{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	return cartDoc{
		UserID:     c.UserID,
		Items:      items,
		TotalPrice: total,
		Version:    c.Version,
		// mongoはミリ秒精度
		CreatedAt: c.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt: c.UpdatedAt.UTC().Truncate(time.Millisecond),
	}, nil
}

func fromDoc(d cartDoc) (model.Cart, error) {
	total, err := decimal.NewFromString(d.TotalPrice.String())
	if err != nil {
		return model.Cart{}, fmt.Errorf("decode total price: %w", err)
	}

	items := make([]model.CartItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, model.CartItem{UserID: d.UserID, ProductID: it.ProductID, Quantity: it.Quantity})
	}

	return model.Cart{
		UserID:     d.UserID,
		Items:      items,
		TotalPrice: total,
		Version:    d.Version,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}
