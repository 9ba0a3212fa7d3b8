package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/gamestore/services/games/config"
	"example.com/gamestore/services/games/internal/models"
)

// DB bundles the write and read connections
type DB struct {
	Write *gorm.DB
	Read  *gorm.DB
}

// Connect opens the write connection and, when a separate read-only DSN is
// configured, the read connection as well. Otherwise reads share the write
// connection.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	write, err := open(cfg.DSN, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	read := write
	if cfg.ReadOnlyDSN != "" && cfg.ReadOnlyDSN != cfg.DSN {
		read, err = open(cfg.ReadOnlyDSN, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to read-only database: %w", err)
		}
	}

	return &DB{Write: write, Read: read}, nil
}

func open(dsn string, cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 50
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 10
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// AutoMigrate runs schema migrations against the write connection
func (d *DB) AutoMigrate() error {
	return models.SetupModels(d.Write)
}

// Close closes both connections
func (d *DB) Close() error {
	if err := closeGorm(d.Write); err != nil {
		return err
	}
	if d.Read != d.Write {
		return closeGorm(d.Read)
	}
	return nil
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
