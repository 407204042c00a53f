// Package notices keeps the transient per-user notices the admin UI shows.
package notices

import (
	"strings"
	"sync"
)

type Notice struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success", "error", "info"
	Text   string `json:"text"`
}

type Store struct {
	mu      sync.Mutex
	byOwner map[string][]Notice
}

func NewStore() *Store {
	return &Store{byOwner: make(map[string][]Notice)}
}

// Add appends a notice, replacing an existing one with the same id.
func (s *Store) Add(owner string, n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byOwner[owner]
	for i := range list {
		if list[i].ID == n.ID {
			list[i] = n
			return
		}
	}
	s.byOwner[owner] = append(list, n)
}

func (s *Store) List(owner string) []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notice{}, s.byOwner[owner]...)
}

func (s *Store) Remove(owner, id string) bool {
	return s.removeWhere(owner, func(n Notice) bool { return n.ID == id }) > 0
}

// RemoveByPrefix drops every notice of owner whose id starts with prefix.
func (s *Store) RemoveByPrefix(owner, prefix string) int {
	return s.removeWhere(owner, func(n Notice) bool { return strings.HasPrefix(n.ID, prefix) })
}

func (s *Store) removeWhere(owner string, match func(Notice) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byOwner[owner]
	kept := list[:0]
	removed := 0
	for _, n := range list {
		if match(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	if len(kept) == 0 {
		delete(s.byOwner, owner)
	} else {
		s.byOwner[owner] = kept
	}
	return removed
}
