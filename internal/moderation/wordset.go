package moderation

import (
	"sync"

	"golang.org/x/text/cases"
)

// WordSet is the in-memory offensive-word oracle. Lookups happen on every
// review check, so membership lives behind an RWMutex with all entries
// stored case-folded. Mutations go through the Catalog, which keeps the
// set synchronized with the backing store.
type WordSet struct {
	mu    sync.RWMutex
	words map[string]struct{}
}

// foldWord case-folds a word for comparison. A Caser is stateful, so each
// call gets its own.
func foldWord(word string) string {
	return cases.Fold().String(word)
}

func NewWordSet() *WordSet {
	return &WordSet{words: make(map[string]struct{})}
}

// Replace swaps the entire set, used when loading from the store.
func (s *WordSet) Replace(words []string) {
	next := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		next[foldWord(w)] = struct{}{}
	}

	s.mu.Lock()
	s.words = next
	s.mu.Unlock()
}

func (s *WordSet) Contains(word string) bool {
	folded := foldWord(word)

	s.mu.RLock()
	_, ok := s.words[folded]
	s.mu.RUnlock()
	return ok
}

func (s *WordSet) add(word string) {
	s.mu.Lock()
	s.words[foldWord(word)] = struct{}{}
	s.mu.Unlock()
}

func (s *WordSet) remove(word string) {
	s.mu.Lock()
	delete(s.words, foldWord(word))
	s.mu.Unlock()
}

func (s *WordSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words)
}

// List returns the folded words in no particular order.
func (s *WordSet) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	return out
}
