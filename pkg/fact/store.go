package fact

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLookupCacheSize bounds the observability-only LRU cache of recent
// Get lookups layered over the backing map.
const DefaultLookupCacheSize = 1024

// Stats reports fact-store observability counters.
type Stats struct {
	Count         int
	LookupHits    int64
	LookupMisses  int64
	CacheSize     int
	CacheCapacity int
}

// Store is the content-addressed FactId -> Fact map. The backing
// representation is a plain map; an LRU cache of recent lookups rides on
// top purely for observability (its hit rate is exposed via Stats, it is
// never consulted for correctness).
type Store struct {
	mu       sync.Mutex
	facts    map[ID]*Fact
	lookup   *lru.Cache[ID, *Fact]
	capacity int
	hits     int64
	misses   int64
}

// NewStore creates an empty fact store with the default lookup-cache size.
func NewStore() *Store {
	return NewStoreWithCacheSize(DefaultLookupCacheSize)
}

// NewStoreWithCacheSize creates an empty fact store with a custom lookup
// cache capacity.
func NewStoreWithCacheSize(cacheSize int) *Store {
	if cacheSize <= 0 {
		cacheSize = DefaultLookupCacheSize
	}
	c, _ := lru.New[ID, *Fact](cacheSize)
	return &Store{
		facts:    make(map[ID]*Fact),
		lookup:   c,
		capacity: cacheSize,
	}
}

// Insert adds a fact, replacing any existing fact at the same id.
func (s *Store) Insert(f *Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts[f.ID] = f
	s.lookup.Add(f.ID, f)
}

// Get retrieves a fact by id.
func (s *Store) Get(id ID) (*Fact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.lookup.Get(id); ok {
		s.hits++
		return f, true
	}
	f, ok := s.facts[id]
	if ok {
		s.lookup.Add(id, f)
	}
	if ok {
		s.hits++
	} else {
		s.misses++
	}
	return f, ok
}

// GetMut returns the fact for in-place inspection. Callers that mutate a
// fact must go through Insert with a Clone() to preserve copy-on-write
// semantics (see the action executor).
func (s *Store) GetMut(id ID) (*Fact, bool) {
	return s.Get(id)
}

// Remove deletes a fact. Removing a missing id is a no-op.
func (s *Store) Remove(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.facts, id)
	s.lookup.Remove(id)
}

// Len returns the number of facts currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.facts)
}

// Stats reports observability counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Count:         len(s.facts),
		LookupHits:    s.hits,
		LookupMisses:  s.misses,
		CacheSize:     s.lookup.Len(),
		CacheCapacity: s.capacity,
	}
}

// All returns a snapshot slice of every fact currently in the store, in no
// particular order.
func (s *Store) All() []*Fact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Fact, 0, len(s.facts))
	for _, f := range s.facts {
		out = append(out, f)
	}
	return out
}
