package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/unwindlabs/tranchegate/internal/config"
	"github.com/unwindlabs/tranchegate/internal/model"
)

// NewDB opens the ledger database: postgres when a DSN is configured,
// otherwise a local pure-Go sqlite file.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	if cfg != nil && cfg.Database.DSN != "" {
		db, err = gorm.Open(postgres.Open(cfg.Database.DSN), gcfg)
	} else {
		path := "./data/tranchegate.db"
		if cfg != nil && cfg.Database.SQLitePath != "" {
			path = cfg.Database.SQLitePath
		}
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", mkErr)
		}
		db, err = gorm.Open(sqlite.Open(path), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	if err := db.AutoMigrate(&model.Order{}, &model.PolicyConfig{}, &model.Balance{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
