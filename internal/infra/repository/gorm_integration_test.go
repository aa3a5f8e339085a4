//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"shopcart/internal/domain/model"
	"shopcart/internal/infra/db"
	repo "shopcart/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gormDB, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gormDB) })

	require.NoError(t, db.Migrate(gormDB))
	// 2回目は ErrNoChange を無視する
	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGorm_Products(t *testing.T) {
	gormDB := setupTestDB(t)
	r := NewProductGormRepository(gormDB, 3*time.Second)
	ctx := context.Background()

	laptop, err := r.Create(ctx, model.Product{Name: "Laptop", Category: "Electronics", Price: dec("999.99"), Stock: 2})
	require.NoError(t, err)
	pen, err := r.Create(ctx, model.Product{Name: "Pen", Category: "Office", Price: dec("1.50"), Stock: 0})
	require.NoError(t, err)

	got, err := r.FindByID(ctx, laptop.ID)
	require.NoError(t, err)
	assert.True(t, dec("999.99").Equal(got.Price))

	list, err := r.List(ctx, repo.ProductListQuery{InStock: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, laptop.ID, list[0].ID)

	list, err = r.List(ctx, repo.ProductListQuery{Category: "Office"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pen.ID, list[0].ID)

	pen.Price = dec("2")
	updated, err := r.Update(ctx, pen)
	require.NoError(t, err)
	assert.True(t, dec("2").Equal(updated.Price))

	require.NoError(t, r.SoftDelete(ctx, pen.ID))
	_, err = r.FindByID(ctx, pen.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, r.SoftDelete(ctx, pen.ID), repo.ErrNotFound)

	_, err = r.Update(ctx, model.Product{ID: 999, Name: "x"})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestGorm_CartVersionedSave(t *testing.T) {
	gormDB := setupTestDB(t)
	r := NewCartGormRepository(gormDB, 3*time.Second)
	ctx := context.Background()

	_, err := r.Load(ctx, 1)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	created, err := r.Save(ctx, model.Cart{UserID: 1, Items: []model.CartItem{}, TotalPrice: decimal.Zero}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)

	// 既にあるのに0で保存すると競合
	_, err = r.Save(ctx, model.Cart{UserID: 1}, 0)
	assert.ErrorIs(t, err, repo.ErrVersionConflict)

	c := created
	c.Items = []model.CartItem{{ProductID: 2, Quantity: 1}, {ProductID: 1, Quantity: 3}}
	c.TotalPrice = dec("35")
	saved, err := r.Save(ctx, c, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	// 古いversion
	_, err = r.Save(ctx, c, 1)
	assert.ErrorIs(t, err, repo.ErrVersionConflict)

	loaded, err := r.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Version)
	assert.True(t, dec("35").Equal(loaded.TotalPrice))
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, int64(1), loaded.Items[0].ProductID)
	assert.Equal(t, int64(3), loaded.Items[0].Quantity)

	// 明細は入れ替わる
	loaded.Items = []model.CartItem{}
	loaded.TotalPrice = decimal.Zero
	_, err = r.Save(ctx, loaded, 2)
	require.NoError(t, err)
	loaded, err = r.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

// 同じversionで同時に保存しても成功は1つだけ
func TestGorm_CartConcurrentSave_OneWins(t *testing.T) {
	gormDB := setupTestDB(t)
	r := NewCartGormRepository(gormDB, 5*time.Second)
	ctx := context.Background()

	base, err := r.Save(ctx, model.Cart{UserID: 5, TotalPrice: decimal.Zero}, 0)
	require.NoError(t, err)

	const n = 10
	results := make([]error, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			c := base
			c.Items = []model.CartItem{{ProductID: int64(i + 1), Quantity: 1}}
			_, results[i] = r.Save(ctx, c, base.Version)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, repo.ErrVersionConflict)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestGorm_Orders(t *testing.T) {
	gormDB := setupTestDB(t)
	r := NewOrderGormRepository(gormDB, 3*time.Second)
	ctx := context.Background()

	o, err := r.Create(ctx, model.Order{
		UserID:     1,
		Status:     model.OrderStatusPending,
		TotalPrice: dec("12"),
		Items: []model.OrderItem{
			{ProductID: 1, ProductNameSnapshot: "Coffee", UnitPriceSnapshot: dec("4.50"), Quantity: 2},
			{ProductID: 2, ProductNameSnapshot: "Tea", UnitPriceSnapshot: dec("3"), Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, o.ID)
	require.Len(t, o.Items, 2)
	assert.Equal(t, o.ID, o.Items[0].OrderID)

	got, err := r.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Coffee", got.Items[0].ProductNameSnapshot)

	list, err := r.ListByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = r.ListByUserID(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = r.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
