package redis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/usecase"
)

// KeyResolver caches payment key lookups in front of another resolver.
// A registered key never moves to another account, so cached entries are
// never invalidated; the TTL only bounds memory. Unknown keys are not cached.
type KeyResolver struct {
	next   usecase.KeyResolver
	cache  usecase.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewKeyResolver wraps next with cache.
func NewKeyResolver(next usecase.KeyResolver, cache usecase.Cache, ttl time.Duration, logger zerolog.Logger) *KeyResolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &KeyResolver{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "key_resolver_cache").Logger(),
	}
}

// ResolveKey returns the account id registered under paymentKey.
func (r *KeyResolver) ResolveKey(ctx context.Context, paymentKey string) (string, error) {
	cacheKey := "paykey:" + paymentKey

	accountID, err := r.cache.Get(ctx, cacheKey)
	if err == nil {
		return accountID, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		// Redis trouble degrades to a database lookup.
		r.logger.Warn().Err(err).Msg("payment key cache read failed")
	}

	accountID, err = r.next.ResolveKey(ctx, paymentKey)
	if err != nil {
		return "", err
	}

	if err := r.cache.Set(ctx, cacheKey, accountID, r.ttl); err != nil {
		r.logger.Warn().Err(err).Msg("payment key cache write failed")
	}
	return accountID, nil
}
