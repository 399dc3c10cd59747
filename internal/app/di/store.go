// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	authadapters "mindflow_backend/internal/feature/auth/adapters"
	"mindflow_backend/internal/feature/auth/usecase"
	"mindflow_backend/internal/platform/cache"
	"mindflow_backend/internal/platform/config"
	"mindflow_backend/internal/platform/db"
	platformmongo "mindflow_backend/internal/platform/mongo"
)

// Store is an opened credential store.
type Store struct {
	Users usecase.UserRepository
	// Ping reports whether the backing database is reachable.
	Ping func(ctx context.Context) error
	// Close releases the connection.
	Close func(ctx context.Context) error
}

// OpenStore connects to the store selected by cfg.Driver.
// postgres and sqlite go through GORM, mongo through the official driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	switch cfg.Driver {
	case "postgres", "sqlite":
		gdb, err := db.Open(db.ConfigFromStore(cfg), cfg.ConnectTimeout, cfg.RunMigrations)
		if err != nil {
			return nil, err
		}
		return &Store{
			Users: authadapters.NewUserGorm(gdb),
			Ping:  func(ctx context.Context) error { return db.Ping(ctx, gdb) },
			Close: func(context.Context) error { return db.Close(gdb) },
		}, nil

	case "mongo":
		client, err := platformmongo.Connect(ctx, cfg.MongoURI, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		repo := authadapters.NewUserMongo(client.Database(cfg.MongoDatabase))
		if cfg.RunMigrations {
			if err := repo.EnsureIndexes(ctx); err != nil {
				_ = client.Disconnect(ctx)
				return nil, err
			}
		}
		slog.Info("document store connected", "database", cfg.MongoDatabase)
		return &Store{
			Users: repo,
			Ping:  func(ctx context.Context) error { return platformmongo.Ping(ctx, client) },
			Close: client.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// NewUserRepository wraps users with a Redis read-through cache when rdb is available.
// Otherwise, it returns users unchanged.
func NewUserRepository(rdb *redis.Client, ttl time.Duration, users usecase.UserRepository) usecase.UserRepository {
	if rdb == nil {
		return users
	}
	return cache.NewCachingUserRepository(rdb, ttl, users, "users")
}
