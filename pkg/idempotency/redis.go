// Package idempotency guards retried checkouts with a Redis reservation per Idempotency-Key.
package idempotency

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const Header = "Idempotency-Key"

// MaxKeyLength bounds the client supplied key before it becomes part of a Redis key.
const MaxKeyLength = 128

func FromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func Key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

// Reserve returns false when the key is already held by an earlier request.
func (s *Store) Reserve(ctx context.Context, scope, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, Key(scope, key), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Release frees a key so a failed request can be retried with it.
func (s *Store) Release(ctx context.Context, scope, key string) error {
	if err := s.rdb.Del(ctx, Key(scope, key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
