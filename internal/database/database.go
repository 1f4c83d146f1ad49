package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"saj-gateway/internal/config"
	"saj-gateway/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger adapts zap to be used as a GORM logger.
type gormLogger struct {
	zlog  *zap.Logger
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{zlog: l.zlog, level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.zlog.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.zlog.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.zlog.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("latency", time.Since(begin)),
		zap.String("sql", sql),
		zap.Int64("rows_affected", rows),
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.zlog.Error("GORM Trace", append(fields, zap.Error(err))...)
		return
	}
	l.zlog.Debug("GORM Trace", fields...)
}

// NewGormLogger returns a GORM logger that writes through zap.
func NewGormLogger(zlog *zap.Logger) logger.Interface {
	return &gormLogger{zlog: zlog, level: logger.Warn}
}

// Open connects to the configured store and migrates the gateway schema.
func Open(cfg *config.Config, zlog *zap.Logger) (*gorm.DB, error) {
	dbLogger := zlog.With(zap.String("component", "database"))

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		dbLogger.Info("Opening sqlite database", zap.String("path", cfg.SQLitePath))
		dialector = sqlite.Open(fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", cfg.SQLitePath))
	default:
		dbLogger.Info("Connecting to postgres", zap.String("host", cfg.DBHost), zap.String("database", cfg.DBName))
		dialector = postgres.Open(cfg.PostgresDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  NewGormLogger(dbLogger),
		NowFunc: utcNow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := prepare(db, Migrate); err != nil {
		return nil, err
	}
	dbLogger.Info("Database ready", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// prepare sizes the pool and runs migrate. The pool is closed when
// migration fails.
func prepare(db *gorm.DB, migrate func(*gorm.DB) error) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := migrate(db); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			return fmt.Errorf("%w (close: %v)", err, closeErr)
		}
		return err
	}
	return nil
}

// Migrate creates or updates the gateway tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Device{},
		&models.Plant{},
		&models.AccessToken{},
		&models.DeviceSyncRun{},
		&models.PlantSyncRun{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func utcNow() time.Time {
	return time.Now().UTC()
}
