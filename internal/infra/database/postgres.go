package database

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/totegamma/coa/internal/infra/database/models"
	"github.com/totegamma/coa/internal/log"
)

const schemaName = "coa"

func NewPostgres(dsn string, sqlLevel string) (*gorm.DB, error) {
	zl := log.WithComponent("gorm")
	gormLogger := logger.New(
		&zl, // zerolog.Logger implements Printf
		logger.Config{
			SlowThreshold:             300 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  parseSQLLevel(sqlLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	return db, nil
}

func MigratePostgres(db *gorm.DB) error {
	err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + schemaName).Error
	if err != nil {
		return errors.Wrap(err, "create schema")
	}
	return db.AutoMigrate(
		&models.Certificate{},
	)
}

// Ping checks that the underlying connection pool can reach the server.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func parseSQLLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
