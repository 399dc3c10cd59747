// Package db opens the SQL credential store with GORM.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	authadapters "mindflow_backend/internal/feature/auth/adapters"
	"mindflow_backend/internal/platform/config"
)

// retryInterval is the pause between connection attempts.
const retryInterval = 3 * time.Second

// Config holds the SQL connection settings.
type Config struct {
	Driver     string // postgres or sqlite
	User       string
	Password   string
	Name       string
	Host       string
	Port       string
	SSLMode    string
	SQLitePath string
}

// Opener opens a GORM connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// ConfigFromStore extracts the SQL settings from the application config.
func ConfigFromStore(s config.StoreConfig) Config {
	return Config{
		Driver:     s.Driver,
		User:       s.User,
		Password:   s.Password,
		Name:       s.Name,
		Host:       s.Host,
		Port:       s.Port,
		SSLMode:    s.SSLMode,
		SQLitePath: s.SQLitePath,
	}
}

// BuildDSN returns the driver-specific data source name.
func BuildDSN(cfg Config) string {
	if cfg.Driver == "sqlite" {
		return cfg.SQLitePath
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, sslMode)
}

// gormConfig translates driver errors (unique violations) into gorm.ErrDuplicatedKey.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

// OpenerFor returns the Opener for the configured driver.
func OpenerFor(driver string) (Opener, error) {
	switch driver {
	case "postgres":
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormConfig())
		}, nil
	case "sqlite":
		return func(dsn string) (*gorm.DB, error) {
			db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
			if err != nil {
				return nil, err
			}
			// SQLite allows one writer; every :memory: connection is a separate database
			sqlDB, err := db.DB()
			if err != nil {
				return nil, err
			}
			sqlDB.SetMaxOpenConns(1)
			return db, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(min(retryInterval, remaining))
	}
}

// Open connects to the configured SQL store, retrying until timeout, and migrates
// the schema when migrate is true.
func Open(cfg Config, timeout time.Duration, migrate bool) (*gorm.DB, error) {
	opener, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, opener)
	if err != nil {
		return nil, err
	}

	if migrate {
		if err := migrateOrClose(db); err != nil {
			return nil, err
		}
	}
	slog.Info("SQL store connected", "driver", cfg.Driver)
	return db, nil
}

// migrateOrClose releases the pool when the migration fails.
func migrateOrClose(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		if cerr := Close(db); cerr != nil {
			slog.Warn("failed to close DB after migration error", "error", cerr)
		}
		return err
	}
	return nil
}

// Migrate creates or updates the users table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&authadapters.UserModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Ping checks the connection within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
