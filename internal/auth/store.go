package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BrewReview/BR-Backend/internal/store"
)

// GormUserStore is the postgres-backed user directory.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) GetByUsername(username string) (User, error) {
	var user User
	err := s.db.First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("%w: get user by username: %v", store.ErrPersistenceFailure, err)
	}
	return user, nil
}

func (s *GormUserStore) GetByID(id string) (User, error) {
	var user User
	err := s.db.First(&user, "user_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, store.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("%w: get user by id: %v", store.ErrPersistenceFailure, err)
	}
	return user, nil
}

func (s *GormUserStore) Create(user User) error {
	if user.UserID == "" || user.Username == "" {
		return fmt.Errorf("%w: user needs an id and a username", store.ErrInvalidArgument)
	}
	err := s.db.Create(&user).Error
	if err != nil {
		// Unique violation on the username index means the name is taken.
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "23505") {
			return fmt.Errorf("username %q: %w", user.Username, store.ErrConflict)
		}
		return fmt.Errorf("%w: create user: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *GormUserStore) Update(user User) error {
	if user.UserID == "" {
		return fmt.Errorf("%w: update needs a user id", store.ErrInvalidArgument)
	}
	if err := s.db.Save(&user).Error; err != nil {
		return fmt.Errorf("%w: update user: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *GormUserStore) ListByRole(role string) ([]User, error) {
	var users []User
	if err := s.db.Where("? = ANY(roles)", role).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("%w: list users by role: %v", store.ErrPersistenceFailure, err)
	}
	return users, nil
}

// SetTOTPSecret persists the base64 shared secret after a successful
// two-factor enrollment.
func (s *GormUserStore) SetTOTPSecret(userID, secret string) error {
	res := s.db.Model(&User{}).Where("user_id = ?", userID).Update("totp_secret", secret)
	if res.Error != nil {
		return fmt.Errorf("%w: set totp secret: %v", store.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ReplaceRoles swaps a user's whole role set, used by ban and unban.
func (s *GormUserStore) ReplaceRoles(userID string, roleNames []string) error {
	res := s.db.Model(&User{}).Where("user_id = ?", userID).
		Update("roles", pq.StringArray(roleNames))
	if res.Error != nil {
		return fmt.Errorf("%w: replace roles: %v", store.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetAppealSubmitted flips the appeal flag on a banned user's record.
func (s *GormUserStore) SetAppealSubmitted(userID string, submitted bool) error {
	res := s.db.Model(&User{}).Where("user_id = ?", userID).
		Update("appeal_submitted", submitted)
	if res.Error != nil {
		return fmt.Errorf("%w: set appeal flag: %v", store.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementDeletedReviews bumps the denormalized counter when moderation
// hides one of the user's reviews.
func (s *GormUserStore) IncrementDeletedReviews(userID string) error {
	res := s.db.Model(&User{}).Where("user_id = ?", userID).
		UpdateColumn("deleted_review_count", gorm.Expr("deleted_review_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("%w: bump deleted-review count: %v", store.ErrPersistenceFailure, res.Error)
	}
	return nil
}

// GormOAuthAccountStore persists (provider, subject id) → user links.
type GormOAuthAccountStore struct {
	db *gorm.DB
}

func NewGormOAuthAccountStore(db *gorm.DB) *GormOAuthAccountStore {
	return &GormOAuthAccountStore{db: db}
}

func (s *GormOAuthAccountStore) Find(provider, subjectID string) (OAuthAccount, error) {
	var acc OAuthAccount
	err := s.db.First(&acc, "provider = ? AND subject_id = ?", provider, subjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return OAuthAccount{}, store.ErrNotFound
	}
	if err != nil {
		return OAuthAccount{}, fmt.Errorf("%w: find oauth account: %v", store.ErrPersistenceFailure, err)
	}
	return acc, nil
}

func (s *GormOAuthAccountStore) Link(acc OAuthAccount) error {
	if acc.Provider == "" || acc.SubjectID == "" || acc.UserID == "" {
		return fmt.Errorf("%w: oauth link needs provider, subject and user", store.ErrInvalidArgument)
	}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&acc).Error
	if err != nil {
		return fmt.Errorf("%w: link oauth account: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}

// GormSessionPersistence keeps sessions in postgres. Ending a session
// clears its user_id and keeps the row.
type GormSessionPersistence struct {
	db *gorm.DB
}

func NewGormSessionPersistence(db *gorm.DB) *GormSessionPersistence {
	return &GormSessionPersistence{db: db}
}

func (s *GormSessionPersistence) Insert(session Session) error {
	if err := s.db.Create(&session).Error; err != nil {
		return fmt.Errorf("%w: insert session: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *GormSessionPersistence) Get(id string) (Session, error) {
	var session Session
	err := s.db.First(&session, "session_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, store.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: get session: %v", store.ErrPersistenceFailure, err)
	}
	return session, nil
}

func (s *GormSessionPersistence) GetByUser(userID string) (Session, error) {
	var session Session
	err := s.db.First(&session, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, store.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: get session by user: %v", store.ErrPersistenceFailure, err)
	}
	return session, nil
}

func (s *GormSessionPersistence) End(id string) error {
	err := s.db.Model(&Session{}).Where("session_id = ?", id).
		Update("user_id", "").Error
	if err != nil {
		return fmt.Errorf("%w: end session: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}
