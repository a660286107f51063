package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"wordy/wordy/config"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/utils/logging"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

func dialector(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "", config.DBDriverSQLite:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return sqlite.Open(sqliteDSN(cfg.DBPath)), nil
	case config.DBDriverPostgres:
		connStr := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
		)
		return postgres.Open(connStr), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// sqliteDSN turns on foreign keys and a busy timeout for every connection.
func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?cache=shared&_foreign_keys=on&_busy_timeout=5000"
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if cfg.DBDriver == "" || cfg.DBDriver == config.DBDriverSQLite {
		// a single connection serializes writers and keeps :memory: databases
		// shared across the pool
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logging.AppLogger.Info("Connected to database",
		zap.String("driver", db.Dialector.Name()),
	)

	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	return &Database{DB: db}, nil
}

// Migrate creates or updates every table Wordy uses.
func Migrate(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).
		AutoMigrate(
			&models.User{},
			&models.Document{},
			&models.Revision{},
			&models.Favorite{},
			&models.EditorSettings{},
		)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}

func (db *Database) Close() {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
