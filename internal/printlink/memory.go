package printlink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"printdesk/internal/model"
)

// MemoryStore is an in-process Store for single-instance deployments and tests.
type MemoryStore struct {
	mu    sync.Mutex
	links map[string]model.PrintLink
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock returns an empty store reading time from now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{links: make(map[string]model.PrintLink), now: now}
}

func (s *MemoryStore) Save(_ context.Context, link *model.PrintLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if link.Expired(now) {
		return ErrExpired
	}
	s.evictExpired(now)

	if _, ok := s.links[link.ID]; ok {
		return fmt.Errorf("save print link: id %s already in use", link.ID)
	}
	s.links[link.ID] = *link
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.PrintLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[id]
	if !ok {
		return nil, ErrNotFound
	}
	if link.Expired(s.now()) {
		delete(s.links, id)
		return nil, ErrNotFound
	}
	return &link, nil
}

func (s *MemoryStore) Consume(_ context.Context, id string) (*model.PrintLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.links, id)
	if link.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &link, nil
}

func (s *MemoryStore) PingContext(context.Context) error { return nil }

// Len returns the number of stored links, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

// evictExpired must be called with mu held.
func (s *MemoryStore) evictExpired(now time.Time) {
	for id, link := range s.links {
		if link.Expired(now) {
			delete(s.links, id)
		}
	}
}
