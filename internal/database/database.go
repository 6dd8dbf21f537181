package database

import (
	"fmt"

	"github.com/KoganTheDev/whatsapp-message-automation/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the local ledger database and runs migrations. The file
// is created on first use.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger db %s: %w", path, err)
	}

	if err := db.AutoMigrate(&models.SentRecord{}); err != nil {
		return nil, fmt.Errorf("migrate ledger db: %w", err)
	}

	return db, nil
}
