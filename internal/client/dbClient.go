package client

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"grocollect/internal/model"
)

// InitDBClient opens the database behind DATABASE_URL. A mysql DSN is
// used as-is; a `sqlite:` prefixed URL or empty value falls back to a
// local sqlite file, which is also what the tests use in-memory.
func InitDBClient(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case databaseURL == "":
		dialector = sqlite.Open("grocollect.db")
	case strings.HasPrefix(databaseURL, "sqlite:"):
		dialector = sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite:"))
	default:
		dialector = mysql.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.Product{},
		&model.PickupSlot{},
		&model.Order{},
		&model.OrderItem{},
		&model.Staff{},
		&model.ActivityLog{},
		&model.WebhookEvent{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
