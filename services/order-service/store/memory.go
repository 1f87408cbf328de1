package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps everything in process. Every Store handed out by
// NewMemoryStore is independent; share one instance to simulate several
// service instances over the same backend.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[string]map[chan []byte]struct{}
	closed   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		watchers: make(map[string]map[chan []byte]struct{}),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	v := append([]byte(nil), value...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data[key] = v
	for ch := range s.watchers[key] {
		offer(ch, append([]byte(nil), v...))
	}
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	ch := make(chan []byte, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.watchers[key] == nil {
		s.watchers[key] = make(map[chan []byte]struct{})
	}
	s.watchers[key][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[key][ch]; ok {
			delete(s.watchers[key], ch)
			close(ch)
		}
	}()
	return ch, nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.data {
		if hasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes every open watch channel.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for key, set := range s.watchers {
		for ch := range set {
			close(ch)
		}
		delete(s.watchers, key)
	}
	return nil
}
