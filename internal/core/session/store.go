// Package session holds the in-memory working list of intake items. Items
// are session-scoped and never persisted; confirmation writes go through the
// repositories instead.
package session

import (
	"sort"
	"sync"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

// Store confines the shared mutable state of the orchestrator. Every update
// replaces one item by identifier through a copy, never mutates in place, so
// pipelines of different items cannot interfere with each other.
type Store struct {
	mu    sync.RWMutex
	items map[string]domain.UploadedItem
}

func NewStore() *Store {
	return &Store{items: make(map[string]domain.UploadedItem)}
}

// Put inserts or overwrites an item snapshot.
func (s *Store) Put(item domain.UploadedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// Get returns a snapshot of one item.
func (s *Store) Get(id string) (domain.UploadedItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Replace applies update to a copy of the identified item and stores the
// result. It returns false when the item is gone, which is how results for
// deleted items get discarded: the late writer simply finds nothing to
// replace.
func (s *Store) Replace(id string, update func(domain.UploadedItem) domain.UploadedItem) (domain.UploadedItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return domain.UploadedItem{}, false
	}
	next := update(item)
	next.ID = id
	s.items[id] = next
	return next, true
}

// Remove deletes an item unconditionally and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

// ListByBusiness returns snapshots of the business's items ordered by
// creation time.
func (s *Store) ListByBusiness(businessID string) []domain.UploadedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.UploadedItem
	for _, item := range s.items {
		if item.BusinessID == businessID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
