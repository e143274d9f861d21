package utils

import "time"

// SessionData is the minimal view of a session that middleware needs to
// authorize a request.
type SessionData struct {
	UserID    string
	ExpiresAt time.Time
}
