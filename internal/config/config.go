package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	StoreDriver string // 商品・注文の保存先（postgres/memory）
	CartStore   string // カートの保存先（postgres/mongo/memory）。空ならStoreDriverと同じ
	SeedFile    string // memoryモードで読む商品JSON

	DatabaseURL   string // postgres://...（無ければPOSTGRES_*から組み立てる）
	RunMigrations bool

	MongoURI string
	MongoDB  string

	RedisAddr     string // 空ならキャッシュ無し
	RedisPassword string
	CartCacheTTL  time.Duration

	KafkaBrokers   []string // 空ならイベント送信無し
	KafkaCartTopic string

	StorageTimeout time.Duration // 1回の保存/読込の上限
	CartMaxRetries int           // version競合時の再試行回数
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	retries, err := atoiOr("CART_MAX_RETRIES", 5)
	if err != nil {
		return Config{}, err
	}
	storageTimeout, err := durationOr("STORAGE_TIMEOUT", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := durationOr("CART_CACHE_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	runMigrations, err := boolOr("RUN_MIGRATIONS", true)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", DriverPostgres)),
		CartStore:   strings.ToLower(os.Getenv("CART_STORE")),
		SeedFile:    os.Getenv("SEED_FILE"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RunMigrations: runMigrations,

		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getenv("MONGO_DB", "cartdb"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CartCacheTTL:  cacheTTL,

		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaCartTopic: getenv("KAFKA_CART_TOPIC", "cart-events"),

		StorageTimeout: storageTimeout,
		CartMaxRetries: retries,
	}

	// DATABASE_URL があれば最優先で使う
	if cfg.DatabaseURL == "" {
		u := url.URL{
			Scheme: "postgres",
			User: url.UserPassword(
				getenv("POSTGRES_USER", "postgres"),
				getenv("POSTGRES_PASSWORD", "postgres"),
			),
			Host:     fmt.Sprintf("%s:%d", getenv("POSTGRES_HOST", "localhost"), pgPort),
			Path:     "/" + getenv("POSTGRES_DB", "app"),
			RawQuery: "sslmode=" + getenv("POSTGRES_SSLMODE", "disable"),
		}
		cfg.DatabaseURL = u.String()
	}

	if cfg.CartStore == "" {
		cfg.CartStore = cfg.StoreDriver
	}

	//値チェック
	switch cfg.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be %s or %s", DriverPostgres, DriverMemory)
	}
	switch cfg.CartStore {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return Config{}, fmt.Errorf("CART_STORE must be %s, %s or %s", DriverPostgres, DriverMongo, DriverMemory)
	}
	if cfg.CartStore == DriverPostgres && cfg.StoreDriver != DriverPostgres {
		return Config{}, fmt.Errorf("CART_STORE=postgres requires STORE_DRIVER=postgres")
	}
	if cfg.CartMaxRetries < 0 {
		return Config{}, fmt.Errorf("CART_MAX_RETRIES must be >= 0")
	}
	if cfg.StorageTimeout <= 0 {
		return Config{}, fmt.Errorf("STORAGE_TIMEOUT must be > 0")
	}

	return cfg, nil
}

// UsesPostgres はpostgres接続が必要かどうか。
func (c Config) UsesPostgres() bool {
	return c.StoreDriver == DriverPostgres || c.CartStore == DriverPostgres
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolOr(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
