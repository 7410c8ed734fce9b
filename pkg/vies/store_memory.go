package vies

import (
	"context"
	"time"

	"github.com/dmitrymomot/vatkit/pkg/cache"
)

// MemoryStore keeps answers in a process-local LRU cache.
type MemoryStore struct {
	lru *cache.LRUCache[string, bool]
}

// NewMemoryStore creates a store holding at most capacity answers.
// A non-positive capacity falls back to 10000.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryStore{lru: cache.NewLRUCache[string, bool](capacity)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (bool, bool, error) {
	valid, found := s.lru.Get(key)
	return valid, found, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, valid bool, ttl time.Duration) error {
	s.lru.PutWithTTL(key, valid, ttl)
	return nil
}

// Purge drops expired answers and returns how many were removed.
func (s *MemoryStore) Purge() int {
	return s.lru.Purge()
}

func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
