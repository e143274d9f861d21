// Package moderation screens review content against the offensive-word
// set and an optional external classifier, hiding reviews that trip
// either check.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/BrewReview/BR-Backend/internal/events"
	"github.com/BrewReview/BR-Backend/internal/reviews"
	"github.com/BrewReview/BR-Backend/internal/store"
)

// tokenDelimiters split review text into candidate words.
const tokenDelimiters = " ,.!?;:\n\r\t"

// ReviewStore is the slice of the review repository moderation needs.
type ReviewStore interface {
	GetByID(id string) (reviews.Review, error)
	SetHidden(id string, hidden bool) error
	SetFlagCount(id string, count int) error
}

// AuthorCounter bumps the per-user hidden-review tally used by the ban flow.
type AuthorCounter interface {
	IncrementDeletedReviews(userID string) error
}

// Classifier scores text against content labels and returns the raw JSON
// score distribution.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

type Engine struct {
	words       *WordSet
	persistence WordPersistence
	reviews     ReviewStore
	authors     AuthorCounter
	publisher   *events.Publisher
	classifier  Classifier
	threshold   float64
}

func NewEngine(persistence WordPersistence, reviewStore ReviewStore, authors AuthorCounter, publisher *events.Publisher, classifier Classifier, hateThreshold float64) *Engine {
	return &Engine{
		words:       NewWordSet(),
		persistence: persistence,
		reviews:     reviewStore,
		authors:     authors,
		publisher:   publisher,
		classifier:  classifier,
		threshold:   hateThreshold,
	}
}

// LoadWordSet populates the in-memory set from the store. Run at startup
// before the engine serves any checks.
func (e *Engine) LoadWordSet() error {
	words, err := e.persistence.LoadAll()
	if err != nil {
		return err
	}
	e.words.Replace(words)
	return nil
}

// CheckReview reports whether any token of the text matches the word set,
// ignoring case. Empty and whitespace-only text is never offensive.
func (e *Engine) CheckReview(text string) bool {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(tokenDelimiters, r)
	})
	for _, token := range tokens {
		if e.words.Contains(token) {
			return true
		}
	}
	return false
}

// AddWord inserts the word into the store first and only then into memory,
// so a failed write never leaves the two out of sync. Blank words and
// duplicates are no-ops.
func (e *Engine) AddWord(word string) error {
	if strings.TrimSpace(word) == "" {
		return nil
	}
	if e.words.Contains(word) {
		return nil
	}
	if err := e.persistence.InsertIfAbsent(word); err != nil {
		return err
	}
	e.words.add(word)
	return nil
}

// DeleteWord mirrors AddWord: store first, then memory. Absent words are
// a no-op.
func (e *Engine) DeleteWord(word string) error {
	if strings.TrimSpace(word) == "" {
		return nil
	}
	if !e.words.Contains(word) {
		return nil
	}
	if err := e.persistence.DeleteIfPresent(word); err != nil {
		return err
	}
	e.words.remove(word)
	return nil
}

func (e *Engine) Words() []string {
	return e.words.List()
}

// RunAutoCheck screens each review in input order and hides the offensive
// ones. A failure hiding one review is logged and does not stop the rest
// of the batch; the result always holds one message per input review.
func (e *Engine) RunAutoCheck(ctx context.Context, batch []reviews.Review) []string {
	messages := make([]string, 0, len(batch))
	for _, review := range batch {
		if !e.CheckReview(review.Content) {
			messages = append(messages, fmt.Sprintf("Review %s is not offensive.", review.ID))
			continue
		}
		if err := e.hideReview(ctx, review, "offensive keyword"); err != nil {
			log.Printf("moderation: hiding review %s failed: %v", review.ID, err)
		}
		messages = append(messages, fmt.Sprintf("Review %s is offensive. Hiding the review.", review.ID))
	}
	return messages
}

// AICheckReview runs the external classifier over a single review and
// hides it when the hate score clears the threshold. A nil review reports
// not-found instead of failing.
func (e *Engine) AICheckReview(ctx context.Context, review *reviews.Review) (string, error) {
	if review == nil {
		return "Review not found.", nil
	}
	if e.classifier == nil {
		return "", fmt.Errorf("%w: no classifier configured", store.ErrInvalidArgument)
	}

	raw, err := e.classifier.Classify(ctx, review.Content)
	if err != nil {
		return "", fmt.Errorf("%w: classifier call: %v", store.ErrUpstreamFailure, err)
	}

	if hateConfidence(raw) < e.threshold {
		return fmt.Sprintf("Review %s is not offensive.", review.ID), nil
	}
	if err := e.hideReview(ctx, *review, "classifier hate score"); err != nil {
		log.Printf("moderation: hiding review %s failed: %v", review.ID, err)
	}
	return fmt.Sprintf("Review %s is offensive. Hiding the review.", review.ID), nil
}

// hideReview hides the review, resets its flag counter, bumps the
// author's tally and emits the hidden event. The event publish is best
// effort.
func (e *Engine) hideReview(ctx context.Context, review reviews.Review, reason string) error {
	if err := e.reviews.SetHidden(review.ID, true); err != nil {
		return err
	}
	if err := e.reviews.SetFlagCount(review.ID, 0); err != nil {
		return err
	}
	if err := e.authors.IncrementDeletedReviews(review.UserID); err != nil {
		log.Printf("moderation: counting hidden review for user %s failed: %v", review.UserID, err)
	}
	_ = e.publisher.PublishReviewHidden(ctx, events.ReviewHiddenEvent{
		ReviewID: review.ID,
		AuthorID: review.UserID,
		Reason:   reason,
		HiddenAt: time.Now().UTC(),
	})
	return nil
}

// hateConfidence pulls the "hate" label score out of a raw classifier
// response. Anything malformed or missing scores 0.0.
func hateConfidence(raw string) float64 {
	var scores map[string]json.Number
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return 0.0
	}
	number, ok := scores["hate"]
	if !ok {
		return 0.0
	}
	score, err := number.Float64()
	if err != nil {
		return 0.0
	}
	return score
}
