package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	leasingapp "github.com/estate/backend/internal/application/leasing"
)

var _ leasingapp.DocumentStore = (*MemoryDocumentStore)(nil)

// MemoryDocumentStore keeps documents in process memory. It backs development
// setups without an object store and tests that need real Put/Remove behaviour.
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryDocumentStore creates an empty store whose public URLs start with baseURL
func NewMemoryDocumentStore(baseURL string) *MemoryDocumentStore {
	if baseURL == "" {
		baseURL = "http://localhost/documents"
	}
	return &MemoryDocumentStore{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

// Put stores a copy of data under a fresh key
func (s *MemoryDocumentStore) Put(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := documentKey("", suggestedName, time.Now())
	s.mu.Lock()
	s.objects[key] = append([]byte(nil), data...)
	s.mu.Unlock()
	return key, nil
}

// Remove deletes key; a missing key is not an error
func (s *MemoryDocumentStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// PublicURL returns baseURL joined with key
func (s *MemoryDocumentStore) PublicURL(key string) string {
	return joinURL(s.baseURL, key)
}

// Get returns the stored bytes for key
func (s *MemoryDocumentStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len reports how many documents are stored
func (s *MemoryDocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
