package roles

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BrewReview/BR-Backend/internal/store"
)

// userRow maps just the columns of app_auth.users this package needs,
// mirroring how the middleware package avoids importing auth.
type userRow struct {
	UserID string         `gorm:"primaryKey"`
	Roles  pq.StringArray `gorm:"type:text[]"`
}

func (userRow) TableName() string { return "app_auth.users" }

// Store is the gorm-backed implementation of RequestStore, UserDirectory
// and TxRunner.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListAll() ([]UpgradeRequest, error) {
	var reqs []UpgradeRequest
	if err := s.db.Order("created_at").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("%w: list upgrade requests: %v", store.ErrPersistenceFailure, err)
	}
	return reqs, nil
}

func (s *Store) GetByID(id string) (UpgradeRequest, error) {
	var req UpgradeRequest
	err := s.db.First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UpgradeRequest{}, store.ErrNotFound
	}
	if err != nil {
		return UpgradeRequest{}, fmt.Errorf("%w: get upgrade request: %v", store.ErrPersistenceFailure, err)
	}
	return req, nil
}

// RemoveByID deletes the request if present. Deleting a missing row is a
// no-op, which keeps decline idempotent.
func (s *Store) RemoveByID(id string) error {
	if err := s.db.Delete(&UpgradeRequest{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("%w: remove upgrade request: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *Store) Create(req UpgradeRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: upgrade request needs a user id", store.ErrInvalidArgument)
	}
	if err := s.db.Create(&req).Error; err != nil {
		return fmt.Errorf("%w: create upgrade request: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *Store) HighestRoleOf(userID string) (Role, error) {
	var row userRow
	err := s.db.First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Banned, store.ErrNotFound
	}
	if err != nil {
		return Banned, fmt.Errorf("%w: fetch user roles: %v", store.ErrPersistenceFailure, err)
	}
	return HighestOf(row.Roles), nil
}

// AddRole appends role to the user's role set if not already present. The
// row is locked for the read-modify-write so concurrent upgrades cannot
// drop each other's appends.
func (s *Store) AddRole(userID string, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var row userRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, "user_id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: lock user row: %v", store.ErrPersistenceFailure, err)
		}

		name := role.String()
		for _, existing := range row.Roles {
			if existing == name {
				return nil
			}
		}
		updated := append(row.Roles, name)
		if err := tx.Model(&userRow{}).Where("user_id = ?", userID).
			Update("roles", updated).Error; err != nil {
			return fmt.Errorf("%w: append role: %v", store.ErrPersistenceFailure, err)
		}
		return nil
	})
}

// Transact runs fn against stores scoped to a single database transaction.
func (s *Store) Transact(fn func(requests RequestStore, users UserDirectory) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		scoped := &Store{db: tx}
		return fn(scoped, scoped)
	})
}
