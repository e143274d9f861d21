package roles

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/BrewReview/BR-Backend/internal/db"
)

// Init ensures the roles schema and tables exist.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "app_roles"); err != nil {
		return fmt.Errorf("ensure schema app_roles: %w", err)
	}
	if err := d.AutoMigrate(&UpgradeRequest{}); err != nil {
		return fmt.Errorf("auto-migrate upgrade requests: %w", err)
	}
	return nil
}
