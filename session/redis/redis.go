// Package redis provides a Redis-backed core.SessionStore for deployments
// where consecutive turns of one session may be served by different
// processes. Records are stored as JSON values under a key prefix with the
// same TTL semantics as the in-memory store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dvitale/gias/core"
)

// DefaultTTL matches session.DefaultTTL.
const DefaultTTL = 30 * time.Minute

const keyPrefix = "gias:session:"

// Store is a Redis-backed core.SessionStore.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// Options configures a Store.
type Options struct {
	TTL time.Duration
}

// New constructs a Store from an existing Redis client.
func New(client *goredis.Client, optFns ...func(o *Options)) *Store {
	opts := Options{TTL: DefaultTTL}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, ttl: opts.TTL}
}

// Get implements core.SessionStore.
func (s *Store) Get(ctx context.Context, id string) (*core.SessionRecord, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var rec core.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &rec, nil
}

// Put implements core.SessionStore.
func (s *Store) Put(ctx context.Context, rec *core.SessionRecord) error {
	clone := rec.Clone()
	clone.Updated = time.Now().UTC()
	raw, err := json.Marshal(clone)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+rec.ID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis put session: %w", err)
	}
	return nil
}

// Delete implements core.SessionStore.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

var _ core.SessionStore = (*Store)(nil)
