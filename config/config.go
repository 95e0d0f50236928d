package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"restaurant-api/logger"
	"restaurant-api/store"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port           string
	GinMode        string
	LogMode        string
	DBDriver       string
	DBSource       string
	MongoDatabase  string
	JWTSecret      []byte
	JWTTTL         time.Duration
	RequestTimeout time.Duration
	CORSOrigins    []string
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       os.Getenv("GIN_MODE"),
		LogMode:       getEnv("LOG_MODE", "dev"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		MongoDatabase: getEnv("MONGO_DATABASE", "restaurants"),
		JWTSecret:     []byte(getEnv("JWT_SECRET", "restaurant_api_dev_secret")),
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		cfg.DBSource = getEnv("DB_SOURCE", "restaurants.db")
	case DriverPostgres, DriverMongo:
		cfg.DBSource = os.Getenv("DB_SOURCE")
		if cfg.DBSource == "" {
			return nil, fmt.Errorf("DB_SOURCE is required for the %s driver", cfg.DBDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(getEnv("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, nil
}

// Stores bundles the backends picked by DB_DRIVER. Close releases the
// underlying connection.
type Stores struct {
	Restaurants store.RestaurantStore
	Users       store.UserStore
	Close       func(context.Context) error
}

// InitDB opens and migrates the relational database.
func InitDB(cfg *Config, log *logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DBSource)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DBSource)
	default:
		return nil, fmt.Errorf("%s is not a relational driver", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if cfg.DBDriver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := migrateOrClose(db); err != nil {
		return nil, err
	}
	log.Info("database connected and migrated", "driver", cfg.DBDriver)
	return db, nil
}

// migrateOrClose releases the connection pool when the schema cannot be
// brought up to date.
func migrateOrClose(db *gorm.DB) error {
	if err := store.AutoMigrate(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func OpenStores(ctx context.Context, cfg *Config, log *logger.Logger) (*Stores, error) {
	if cfg.DBDriver == DriverMongo {
		return openMongo(ctx, cfg, log)
	}
	db, err := InitDB(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Restaurants: store.NewGormRestaurantStore(db, log),
		Users:       store.NewGormUserStore(db, log),
		Close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, cfg *Config, log *logger.Logger) (*Stores, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.DBSource))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(cfg.MongoDatabase)
	if err := store.EnsureMongoIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	log.Info("mongo connected", "database", cfg.MongoDatabase)
	return &Stores{
		Restaurants: store.NewMongoRestaurantStore(db, log),
		Users:       store.NewMongoUserStore(db, log),
		Close:       client.Disconnect,
	}, nil
}
