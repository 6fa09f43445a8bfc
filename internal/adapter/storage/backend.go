package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jmarq76/beerstock/internal/config"
	"github.com/jmarq76/beerstock/internal/port"
)

// Backend bundles the repositories of one storage driver.
type Backend struct {
	Beers     port.BeerRepository
	Movements port.MovementRepository
	Countries port.CountryRepository
	close     func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		adapter := NewMemoryBeerAdapter()
		return &Backend{
			Beers:     adapter,
			Movements: adapter,
			Countries: NewMemoryCountryAdapter(DefaultCountries),
		}, nil
	case config.DriverMySQL:
		return openMySQL(ctx, cfg.MySQLDSN, log)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.PostgresDSN, log)
	case config.DriverRedis:
		return openRedis(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func openMySQL(ctx context.Context, dsn string, log *zap.Logger) (*Backend, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	log.Info("connected to mysql")

	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	countries := NewMySQLCountryAdapter(db)
	if err := countries.Seed(ctx, DefaultCountries); err != nil {
		db.Close()
		return nil, err
	}

	return &Backend{
		Beers:     adapter,
		Movements: adapter,
		Countries: countries,
		close:     db.Close,
	}, nil
}

func openPostgres(ctx context.Context, dsn string, log *zap.Logger) (*Backend, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	log.Info("connected to postgres")

	adapter := NewGormAdapter(db)
	if err := adapter.AutoMigrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	countries := adapter.Countries()
	if err := countries.Seed(ctx, DefaultCountries); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &Backend{
		Beers:     adapter,
		Movements: adapter,
		Countries: countries,
		close:     sqlDB.Close,
	}, nil
}

func openRedis(ctx context.Context, cfg config.Config, log *zap.Logger) (*Backend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	adapter := NewRedisAdapter(rdb)

	// countries have no redis representation
	return &Backend{
		Beers:     adapter,
		Movements: adapter,
		Countries: NewMemoryCountryAdapter(DefaultCountries),
		close:     rdb.Close,
	}, nil
}
