package auth

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/BrewReview/BR-Backend/internal/db"
)

// Init ensures the auth schema and tables exist.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "app_auth"); err != nil {
		return fmt.Errorf("ensure schema app_auth: %w", err)
	}
	if err := d.AutoMigrate(&User{}, &Session{}, &OAuthAccount{}); err != nil {
		return fmt.Errorf("auto-migrate auth tables: %w", err)
	}
	return nil
}
