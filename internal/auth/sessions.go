package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BrewReview/BR-Backend/internal/store"
	"github.com/BrewReview/BR-Backend/internal/utils"
)

// SessionPersistence is the storage a SessionStore runs on. Two
// implementations exist: gorm (rows soft-ended by clearing user_id) and
// redis (keys hard-deleted on end). End on an absent id must not be an
// error.
type SessionPersistence interface {
	Insert(s Session) error
	Get(id string) (Session, error)
	GetByUser(userID string) (Session, error)
	End(id string) error
}

// SessionStore owns the session lifecycle.
type SessionStore struct {
	persistence SessionPersistence
	ttl         time.Duration
	now         func() time.Time
}

// DefaultSessionTTL matches the cookie lifetime handed to browsers.
const DefaultSessionTTL = 6 * time.Hour

func NewSessionStore(p SessionPersistence) *SessionStore {
	return &SessionStore{persistence: p, ttl: DefaultSessionTTL, now: time.Now}
}

// Create opens a session for userID. An empty user id is rejected: a
// session without an owner would be indistinguishable from an ended one.
func (s *SessionStore) Create(userID string) (Session, error) {
	if userID == "" {
		return Session{}, fmt.Errorf("%w: session needs a user id", store.ErrInvalidArgument)
	}

	session := Session{
		SessionID: utils.GenerateUUID(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.persistence.Insert(session); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// End terminates the session. It is idempotent: ending an absent or
// already-ended session reports true. Only a store failure reports false.
func (s *SessionStore) End(sessionID string) (bool, error) {
	err := s.persistence.End(sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("end session: %w", err)
	}
	return true, nil
}

// Get returns the session or store.ErrNotFound. Ended sessions (user id
// cleared) are reported as not found so callers never act on them.
func (s *SessionStore) Get(sessionID string) (Session, error) {
	session, err := s.persistence.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	if !session.Active() {
		return Session{}, store.ErrNotFound
	}
	return session, nil
}

// GetByUser returns the user's active session or store.ErrNotFound.
func (s *SessionStore) GetByUser(userID string) (Session, error) {
	if userID == "" {
		return Session{}, fmt.Errorf("%w: empty user id", store.ErrInvalidArgument)
	}
	session, err := s.persistence.GetByUser(userID)
	if err != nil {
		return Session{}, err
	}
	if !session.Active() {
		return Session{}, store.ErrNotFound
	}
	return session, nil
}
