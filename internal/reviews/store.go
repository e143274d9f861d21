package reviews

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/BrewReview/BR-Backend/internal/store"
)

// Store is the postgres-backed review repository.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(review Review) error {
	if review.ID == "" || review.UserID == "" {
		return fmt.Errorf("%w: review needs an id and an author", store.ErrInvalidArgument)
	}
	if err := s.db.Create(&review).Error; err != nil {
		return fmt.Errorf("%w: create review: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *Store) GetByID(id string) (Review, error) {
	var review Review
	err := s.db.First(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Review{}, store.ErrNotFound
	}
	if err != nil {
		return Review{}, fmt.Errorf("%w: get review: %v", store.ErrPersistenceFailure, err)
	}
	return review, nil
}

func (s *Store) ListAll() ([]Review, error) {
	var out []Review
	if err := s.db.Order("created_at").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%w: list reviews: %v", store.ErrPersistenceFailure, err)
	}
	return out, nil
}

func (s *Store) ListVisible() ([]Review, error) {
	var out []Review
	if err := s.db.Where("hidden = false").Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%w: list visible reviews: %v", store.ErrPersistenceFailure, err)
	}
	return out, nil
}

func (s *Store) SetHidden(id string, hidden bool) error {
	res := s.db.Model(&Review{}).Where("id = ?", id).Update("hidden", hidden)
	if res.Error != nil {
		return fmt.Errorf("%w: set hidden: %v", store.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetFlagCount(id string, count int) error {
	res := s.db.Model(&Review{}).Where("id = ?", id).Update("flag_count", count)
	if res.Error != nil {
		return fmt.Errorf("%w: set flag count: %v", store.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Flag atomically increments the flag counter and returns the new count.
func (s *Store) Flag(id string) (int, error) {
	var count int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Review{}).Where("id = ?", id).
			UpdateColumn("flag_count", gorm.Expr("flag_count + 1"))
		if res.Error != nil {
			return fmt.Errorf("%w: flag review: %v", store.ErrPersistenceFailure, res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return tx.Model(&Review{}).Select("flag_count").
			Where("id = ?", id).Scan(&count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
