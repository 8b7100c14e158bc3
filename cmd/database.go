package cmd

import (
	"fmt"

	"dispatch/internal/adapters/out/postgres"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase connects to Postgres with the settings of cfg.
func OpenDatabase(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate applies (up) or rolls back (down) the embedded schema migrations.
func Migrate(db *gorm.DB, direction string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	switch direction {
	case "up":
		return postgres.MigrateUp(sqlDB)
	case "down":
		return postgres.MigrateDown(sqlDB)
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
}
