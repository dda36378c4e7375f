package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospital-management-backend/internal/config"
	"hospital-management-backend/internal/models"
)

// Connect initializes and returns a GORM database connection
func Connect(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.Database.DataSourceName())
	default:
		// Simple protocol keeps pgbouncer-style poolers happy.
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.Database.DataSourceName(),
			PreferSimpleProtocol: true,
		})
	}

	db, err := Open(dialector, GormLogger(cfg))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info("Connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("name", cfg.Database.Database),
	)
	return db, nil
}

// Open wraps gorm.Open with the settings every connection shares: UTC
// timestamps and translation of driver errors into gorm sentinels such as
// gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, gormLogger logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// GormLogger returns the SQL logger for the configured mode.
func GormLogger(cfg *config.Config) logger.Interface {
	if cfg.IsRelease() {
		return logger.Default.LogMode(logger.Error)
	}
	return logger.Default.LogMode(logger.Warn)
}

// Migrate creates or updates the schema for all persisted models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Hospital{}, &models.User{}, &models.AuditLog{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
