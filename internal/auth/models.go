package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Session rows hold the server side of the session cookie. A session is
// active exactly while its UserID is set; ending a session clears the
// UserID rather than deleting the row, so stale cookies resolve cleanly.
type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"index" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

// Active reports whether the session still belongs to a user. Expiry is
// checked separately by the session middleware.
func (s Session) Active() bool { return s.UserID != "" }

type User struct {
	UserID             string         `gorm:"primaryKey" json:"user_id"`
	Username           string         `gorm:"uniqueIndex" json:"username"`
	Password           string         `json:"password" gorm:"-"`
	HashedPassword     string         `json:"-"`
	TOTPSecret         string         `json:"-"` // base64 of the raw shared secret, empty until enrolled
	Email              string         `json:"email"`
	DeletedReviewCount int            `gorm:"default:0" json:"deleted_review_count"`
	AppealSubmitted    bool           `gorm:"default:false" json:"appeal_submitted"`
	Roles              pq.StringArray `gorm:"type:text[]" json:"roles"`
	CreatedAt          time.Time      `json:"-"`
	UpdatedAt          time.Time      `json:"-"`
}

// OAuthAccount links a provider-scoped identity to a local user. Keying on
// (provider, subject id) means two people who share a display name never
// merge accounts.
type OAuthAccount struct {
	Provider  string    `gorm:"primaryKey" json:"provider"`
	SubjectID string    `gorm:"primaryKey" json:"subject_id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `json:"-"`
}

func (Session) TableName() string      { return "app_auth.sessions" }
func (User) TableName() string         { return "app_auth.users" }
func (OAuthAccount) TableName() string { return "app_auth.oauth_accounts" }

// AuthenticationResponse is the outcome value for every login path.
// Equality is structural, which the tests rely on.
type AuthenticationResponse struct {
	AuthenticationSuccessful bool   `json:"authentication_successful"`
	SessionID                string `json:"session_id"`
	OAuthToken               string `json:"oauth_token"`
	NewAccount               bool   `json:"new_account"`
}

// FailedAuthentication returns the failure outcome: no success, the nil-UUID
// session sentinel and no token.
func FailedAuthentication() AuthenticationResponse {
	return AuthenticationResponse{SessionID: uuid.Nil.String()}
}
