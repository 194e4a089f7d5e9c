package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store bounded by an LRU eviction policy with
// per-key TTL on top. Suitable for single-instance deployments; multi-instance
// deployments should prefer RedisStore so invalidation reaches every replica.
type MemoryStore struct {
	capacity int
	mu       sync.Mutex
	items    map[string]*list.Element
	eviction *list.List
}

// NewMemoryStore creates an in-memory store holding at most capacity entries.
// Panics on a non-positive capacity to enforce fail-fast initialization.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		panic("cache: memory store capacity must be positive")
	}
	return &MemoryStore{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}

	entry := elem.Value.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		s.removeElement(elem)
		return nil, false, nil
	}

	s.eviction.MoveToFront(elem)
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	if elem, ok := s.items[key]; ok {
		s.eviction.MoveToFront(elem)
		entry := elem.Value.(*memoryEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		return nil
	}

	elem := s.eviction.PushFront(&memoryEntry{key: key, value: value, expiresAt: expiresAt})
	s.items[key] = elem

	if s.eviction.Len() > s.capacity {
		if oldest := s.eviction.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key]; ok {
		s.removeElement(elem)
	}
	return nil
}

// DeletePattern removes every key matching the glob pattern, where '*'
// matches any run of characters.
func (s *MemoryStore) DeletePattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, elem := range s.items {
		if matchPattern(pattern, key) {
			s.removeElement(elem)
		}
	}
	return nil
}

// matchPattern matches key against a glob pattern supporting '*' as the only
// metacharacter, mirroring the subset of Redis glob syntax the stores rely on.
func matchPattern(pattern, key string) bool {
	// Backtracking two-pointer match over '*' wildcards.
	var starIdx, matchIdx = -1, 0
	p, k := 0, 0
	for k < len(key) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			starIdx, matchIdx = p, k
			p++
		case p < len(pattern) && pattern[p] == key[k]:
			p++
			k++
		case starIdx >= 0:
			matchIdx++
			p, k = starIdx+1, matchIdx
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// Len returns the number of entries currently held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eviction.Len()
}

// Must be called with lock held.
func (s *MemoryStore) removeElement(elem *list.Element) {
	s.eviction.Remove(elem)
	delete(s.items, elem.Value.(*memoryEntry).key)
}
