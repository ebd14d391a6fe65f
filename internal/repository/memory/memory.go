package memory

import (
	"context"
	"sync"

	"flyra-backend/internal/domain"
	"flyra-backend/internal/repository"
)

// MemStorage is an in-memory Storage used in tests and local development.
type MemStorage struct {
	mu    sync.RWMutex
	links map[string]*domain.LinkRecord
}

func New() *MemStorage {
	return &MemStorage{
		links: make(map[string]*domain.LinkRecord),
	}
}

// clone returns a copy so callers hold point-in-time snapshots, the same way
// a real store round trip would.
func clone(link *domain.LinkRecord) *domain.LinkRecord {
	cp := *link
	if link.ClicksRemaining != nil {
		v := *link.ClicksRemaining
		cp.ClicksRemaining = &v
	}
	if link.ExpiresAt != nil {
		t := *link.ExpiresAt
		cp.ExpiresAt = &t
	}
	if link.PasswordHash != nil {
		h := *link.PasswordHash
		cp.PasswordHash = &h
	}
	return &cp
}

func (s *MemStorage) SaveLink(_ context.Context, link *domain.LinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.links[link.Slug]; exists {
		return repository.ErrSlugExists
	}
	s.links[link.Slug] = clone(link)
	return nil
}

func (s *MemStorage) GetLink(_ context.Context, slug string) (*domain.LinkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[slug]
	if !ok {
		return nil, repository.ErrSlugNotFound
	}
	return clone(link), nil
}

func (s *MemStorage) DeleteLink(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[slug]; !ok {
		return repository.ErrSlugNotFound
	}
	delete(s.links, slug)
	return nil
}

func (s *MemStorage) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.links[slug]
	return ok, nil
}

// DecrementClicks mirrors the conditional UPDATE of the postgres store:
// decrement only while positive, ErrClicksExhausted at the floor.
func (s *MemStorage) DecrementClicks(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[slug]
	if !ok {
		return repository.ErrSlugNotFound
	}
	if link.ClicksRemaining == nil || *link.ClicksRemaining <= 0 {
		return repository.ErrClicksExhausted
	}
	*link.ClicksRemaining--
	return nil
}
