package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/ports"
)

// ContentStore is an in-process object store for local development and tests.
// URLs it signs are plain paths; nothing serves them, which is fine for the
// local provider and for assertions.
type ContentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewContentStore creates an empty in-memory store.
func NewContentStore() *ContentStore {
	return &ContentStore{objects: make(map[string][]byte)}
}

var _ ports.ContentStore = (*ContentStore)(nil)

// Put stores data under key.
func (s *ContentStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	return nil
}

// SignedGetURL returns a pseudo URL for a stored key.
func (s *ContentStore) SignedGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("%w: object %s not found", apperrors.ErrStorage, key)
	}
	return "memory://" + key, nil
}

// Get returns stored bytes. Test helper.
func (s *ContentStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len returns the number of stored objects. Test helper.
func (s *ContentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
