package session

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dvitale/gias/core"
)

const (
	// DefaultTTL keeps idle session records alive a little longer than the
	// DialogueState TTL so a revived conversation still finds its pending
	// detail.
	DefaultTTL = 30 * time.Minute
	// purgeInterval for go-cache's background janitor.
	purgeInterval = 5 * time.Minute
)

// InMemoryStore is a volatile core.SessionStore backed by go-cache. Records
// expire DefaultTTL after their last write. Get/Put copy the record so
// overlapping turns never share a mutable pointer; Update serializes
// read-modify-write cycles per store.
type InMemoryStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
	ttl   time.Duration
}

// Options configures an InMemoryStore.
type Options struct {
	TTL time.Duration
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{TTL: DefaultTTL}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{cache: gocache.New(opts.TTL, purgeInterval), ttl: opts.TTL}
}

// Get implements core.SessionStore.
func (s *InMemoryStore) Get(_ context.Context, id string) (*core.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return v.(*core.SessionRecord).Clone(), nil
}

// Put implements core.SessionStore.
func (s *InMemoryStore) Put(_ context.Context, rec *core.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := rec.Clone()
	clone.Updated = time.Now().UTC()
	s.cache.Set(rec.ID, clone, gocache.DefaultExpiration)
	return nil
}

// Delete implements core.SessionStore.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(id)
	return nil
}

// Update runs a read-modify-write cycle under the store lock, creating an
// empty record when none exists. This is the safe way for a turn to mutate
// session state while other turns of other sessions run concurrently.
func (s *InMemoryStore) Update(_ context.Context, id string, fn func(rec *core.SessionRecord)) (*core.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rec *core.SessionRecord
	if v, ok := s.cache.Get(id); ok {
		rec = v.(*core.SessionRecord).Clone()
	} else {
		rec = core.NewSessionRecord(id)
	}
	fn(rec)
	rec.Updated = time.Now().UTC()
	s.cache.Set(id, rec, gocache.DefaultExpiration)
	return rec.Clone(), nil
}

var _ core.SessionStore = (*InMemoryStore)(nil)
