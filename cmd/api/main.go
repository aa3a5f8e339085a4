package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"shopcart/internal/cache"
	"shopcart/internal/config"
	"shopcart/internal/domain/model"
	"shopcart/internal/events"
	"shopcart/internal/handler"
	"shopcart/internal/infra/db"
	"shopcart/internal/infra/memory"
	"shopcart/internal/infra/mongostore"
	infraRepo "shopcart/internal/infra/repository"
	"shopcart/internal/logger"
	repo "shopcart/internal/repository"
	"shopcart/internal/server"
	"shopcart/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func main() {
	// .env は無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service:   "shopcart",
		Env:       cfg.GoEnv,
		Level:     cfg.LogLevel,
		Pretty:    cfg.GoEnv == "dev",
		AddSource: cfg.GoEnv != "prod",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// 保存先一式
type stores struct {
	products repo.ProductRepository
	orders   repo.OrderRepository
	carts    repo.CartRepository
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	//DB接続
	var gormDB *gorm.DB
	if cfg.UsesPostgres() {
		var err error
		gormDB, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() { _ = db.Close(gormDB) })

		if cfg.RunMigrations {
			if err := db.Migrate(gormDB); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
		}
	}

	st, err := buildStores(ctx, cfg, gormDB, log, &cleanups)
	if err != nil {
		return err
	}

	//キャッシュ（REDIS_ADDRがあるときだけ）
	var cartCache cache.CartCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		client, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		cartCache = cache.NewRedisCache(client, cfg.CartCacheTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis cart cache enabled")
	}

	//イベント（KAFKA_BROKERSがあるときだけ）
	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaCartTopic)
		cleanups = append(cleanups, func() { _ = kp.Close() })
		publisher = kp
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaCartTopic).Msg("kafka cart events enabled")
	}

	//Usecase生成
	cartUC := usecase.NewCartUsecase(st.carts, st.products, cartCache, publisher, log, cfg.CartMaxRetries)
	productUC := usecase.NewProductUsecase(st.products, log)
	orderUC := usecase.NewOrderUsecase(cartUC, st.products, st.orders, log)

	//Handler生成
	e := server.New(log, server.Handlers{
		Cart:    handler.NewCartHandler(cartUC),
		Product: handler.NewProductHandler(productUC),
		Order:   handler.NewOrderHandler(orderUC),
	})

	//Server起動
	return server.Start(ctx, e, ":"+cfg.Port, log)
}

func buildStores(ctx context.Context, cfg config.Config, gormDB *gorm.DB, log zerolog.Logger, cleanups *[]func()) (stores, error) {
	var st stores

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		st.products = infraRepo.NewProductGormRepository(gormDB, cfg.StorageTimeout)
		st.orders = infraRepo.NewOrderGormRepository(gormDB, cfg.StorageTimeout)
	case config.DriverMemory:
		var seed []model.Product
		if cfg.SeedFile != "" {
			var err error
			seed, err = memory.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				return stores{}, err
			}
			log.Info().Str("file", cfg.SeedFile).Int("products", len(seed)).Msg("product seed loaded")
		}
		st.products = memory.NewProductStore(seed...)
		st.orders = memory.NewOrderStore()
	}

	switch cfg.CartStore {
	case config.DriverPostgres:
		st.carts = infraRepo.NewCartGormRepository(gormDB, cfg.StorageTimeout)
	case config.DriverMongo:
		mdb, err := db.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return stores{}, err
		}
		*cleanups = append(*cleanups, func() { _ = mdb.Client().Disconnect(context.Background()) })

		cartRepo := mongostore.NewCartMongoRepository(mdb, cfg.StorageTimeout)
		if err := cartRepo.CreateIndexes(ctx); err != nil {
			return stores{}, err
		}
		st.carts = cartRepo
	case config.DriverMemory:
		st.carts = memory.NewCartStore()
	}

	log.Info().Str("store_driver", cfg.StoreDriver).Str("cart_store", cfg.CartStore).Msg("stores ready")
	return st, nil
}
