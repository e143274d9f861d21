package auth

import (
	"github.com/BrewReview/BR-Backend/internal/utils"
)

// SessionInfo adapts the SessionStore to the middleware's SessionFetcher
// interface.
type SessionInfo struct {
	sessions *SessionStore
}

func NewSessionInfo(sessions *SessionStore) SessionInfo {
	return SessionInfo{sessions: sessions}
}

func (si SessionInfo) FindSessionByID(id string) (utils.SessionData, error) {
	session, err := si.sessions.Get(id)
	if err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
