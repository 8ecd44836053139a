package certificate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps certificates for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	certs map[string]Certificate
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{certs: make(map[string]Certificate)}
}

func (s *MemoryStore) Save(_ context.Context, c *Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[c.ID] = *c
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &c, nil
}

// List returns certificates newest first.
func (s *MemoryStore) List(_ context.Context) ([]Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Certificate, 0, len(s.certs))
	for _, c := range s.certs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}
