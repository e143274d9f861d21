// Package reviews owns the drink-review records and their store. The
// moderation engine consumes the store through its own narrow interface.
package reviews

import "time"

type Review struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	FlagCount int       `gorm:"default:0" json:"flag_count"`
	Hidden    bool      `gorm:"default:false" json:"hidden"`
	CreatedAt time.Time `json:"created_at"`
}

func (Review) TableName() string { return "app_reviews.reviews" }
