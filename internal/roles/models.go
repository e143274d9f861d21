package roles

import "time"

// UpgradeRequest is a pending ask to be promoted one rung. The display name
// is snapshotted at creation so moderators see who asked even if the
// username changes later.
type UpgradeRequest struct {
	ID          string `gorm:"primaryKey" json:"id"`
	UserID      string `gorm:"not null;index" json:"user_id"`
	DisplayName string `json:"display_name"`
	CreatedAt   time.Time
}

func (UpgradeRequest) TableName() string { return "app_roles.upgrade_requests" }
