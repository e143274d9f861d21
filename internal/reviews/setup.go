package reviews

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/BrewReview/BR-Backend/internal/db"
)

// Init ensures the reviews schema and table exist.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "app_reviews"); err != nil {
		return fmt.Errorf("ensure schema app_reviews: %w", err)
	}
	if err := d.AutoMigrate(&Review{}); err != nil {
		return fmt.Errorf("auto-migrate reviews: %w", err)
	}
	return nil
}
