package moderation

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/BrewReview/BR-Backend/internal/db"
)

// Init ensures the moderation schema and tables exist.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "app_moderation"); err != nil {
		return fmt.Errorf("ensure schema app_moderation: %w", err)
	}
	if err := d.AutoMigrate(&OffensiveWord{}); err != nil {
		return fmt.Errorf("auto-migrate offensive words: %w", err)
	}
	return nil
}
