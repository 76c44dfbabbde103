package paystackwebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/digimartng/digimart-backend/pkg/redis"
)

// IdempotencyGuard short-circuits webhook replays before they hit the
// database. It is a fast-path filter only; the unique constraints on
// transaction references remain the source of truth.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

// NewIdempotencyGuard builds a guard for one webhook scope.
func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

// CheckAndMark reports whether the reference was already seen, marking it as
// seen otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, reference string) (bool, error) {
	if reference == "" {
		return false, errors.New("reference is required")
	}
	key := g.store.IdempotencyKey(g.scope, reference)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete clears the mark so a failed settlement can be retried on redelivery.
func (g *IdempotencyGuard) Delete(ctx context.Context, reference string) error {
	if reference == "" {
		return errors.New("reference is required")
	}
	key := g.store.IdempotencyKey(g.scope, reference)
	return g.store.Del(ctx, key)
}
