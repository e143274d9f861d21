package moderation

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BrewReview/BR-Backend/internal/store"
)

// WordPersistence is the durable side of the word set.
type WordPersistence interface {
	LoadAll() ([]string, error)
	InsertIfAbsent(word string) error
	DeleteIfPresent(word string) error
}

type GormWordStore struct {
	DB *gorm.DB
}

func (s *GormWordStore) LoadAll() ([]string, error) {
	var words []string
	err := s.DB.Model(&OffensiveWord{}).Pluck("word", &words).Error
	if err != nil {
		return nil, fmt.Errorf("%w: loading offensive words: %v", store.ErrPersistenceFailure, err)
	}
	return words, nil
}

func (s *GormWordStore) InsertIfAbsent(word string) error {
	row := OffensiveWord{Word: foldWord(word)}
	err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: inserting offensive word: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *GormWordStore) DeleteIfPresent(word string) error {
	err := s.DB.Delete(&OffensiveWord{Word: foldWord(word)}).Error
	if err != nil {
		return fmt.Errorf("%w: deleting offensive word: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}
