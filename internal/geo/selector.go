package geo

import (
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
)

// Selector tracks the selected store. The default (nearest) selection is
// re-evaluated once for each distinct ranked sequence and an explicit
// Choose is never overridden by it while the chosen store is still listed.
type Selector struct {
	mu       sync.Mutex
	lastKey  string
	seen     bool
	ranked   []Ranked
	selected *models.Store
	explicit bool
}

func sequenceKey(ranked []Ranked) string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Store.ID
	}
	return strings.Join(ids, "\x00")
}

// Update records a freshly ranked sequence and returns the selection after it.
func (s *Selector) Update(ranked []Ranked) (models.Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ranked = append(s.ranked[:0], ranked...)

	key := sequenceKey(ranked)
	if s.seen && key == s.lastKey {
		return s.current()
	}
	s.seen = true
	s.lastKey = key

	if s.explicit {
		if st, ok := find(ranked, s.selected.ID); ok {
			s.selected = &st
			return s.current()
		}
		// the chosen store is no longer listed
		s.explicit = false
	}
	if n, ok := Nearest(ranked); ok {
		st := n.Store
		s.selected = &st
	} else {
		s.selected = nil
	}
	return s.current()
}

func find(ranked []Ranked, id string) (models.Store, bool) {
	for _, r := range ranked {
		if r.Store.ID == id {
			return r.Store, true
		}
	}
	return models.Store{}, false
}

// Choose selects the store with the given id from the last ranked sequence.
func (s *Selector) Choose(id string) (models.Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := find(s.ranked, id)
	if !ok {
		return models.Store{}, false
	}
	s.selected = &st
	s.explicit = true
	return st, true
}

// Selected returns the current selection.
func (s *Selector) Selected() (models.Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

// Explicit reports whether the selection was made with Choose.
func (s *Selector) Explicit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.explicit
}

// Reset forgets the selection and the last seen sequence.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastKey, s.seen = "", false
	s.ranked = nil
	s.selected = nil
	s.explicit = false
}

func (s *Selector) current() (models.Store, bool) {
	if s.selected == nil {
		return models.Store{}, false
	}
	return *s.selected, true
}
