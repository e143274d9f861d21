package moderation

import "time"

// OffensiveWord rows are stored folded so the unique index enforces
// case-insensitivity at the database level too.
type OffensiveWord struct {
	Word      string    `gorm:"primaryKey" json:"word"`
	CreatedAt time.Time `json:"created_at"`
}

func (OffensiveWord) TableName() string {
	return "app_moderation.offensive_words"
}
