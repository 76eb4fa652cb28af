package database

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/yukikurage/team-task-api/internal/config"
	"github.com/yukikurage/team-task-api/internal/utils"
	"github.com/yukikurage/team-task-api/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dialector returns the gorm dialector for a driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// GormConfig is shared by the server and tests. Store errors are translated
// so unique violations surface as gorm.ErrDuplicatedKey. Relations are
// enforced by the repositories, not by foreign keys.
func GormConfig(debug bool) *gorm.Config {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger:                                   newGormLogger(stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags), level),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// newGormLogger logs SQL at level. Lookups that find no row are expected
// (for example the leader check on team creation) and are not reported.
func newGormLogger(w gormlogger.Writer, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(w, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Open opens a connection without retrying.
func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, GormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// sqlite allows one writer; an in-memory database also lives on a
		// single connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Connect opens the configured database, waiting for it to come up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	var db *gorm.DB
	retry := utils.RetryConfig{
		Attempts:     cfg.ConnectRetries,
		InitialDelay: cfg.RetryInterval,
		Multiplier:   1,
	}

	attempt := 0
	err := utils.Retry(ctx, retry, func(ctx context.Context) error {
		attempt++
		conn, err := Open(cfg.Driver, cfg.DSN, debug)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("database not ready")
			return err
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			logger.Warn().Err(err).Int("attempt", attempt).Msg("database not ready")
			return err
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("database unavailable after %d attempts: %w", attempt, err)
	}

	if cfg.Driver != "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}

	logger.Info().Str("driver", cfg.Driver).Msg("database connection established")
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
