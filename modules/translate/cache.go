package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedTranslator caches translations in redis in front of the real
// translator. Cache failures are logged and otherwise invisible: a broken
// cache degrades to a slower pass-through, never to an error.
type CachedTranslator struct {
	inner Translator
	cache redis.UniversalClient
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedTranslator wraps a translator with a redis cache.
func NewCachedTranslator(inner Translator, cache redis.UniversalClient, ttl time.Duration, log *slog.Logger) *CachedTranslator {
	if log == nil {
		log = slog.Default()
	}
	return &CachedTranslator{inner: inner, cache: cache, ttl: ttl, log: log}
}

func (c *CachedTranslator) Translate(ctx context.Context, text, source, target string) (Translation, error) {
	key := cacheKey(text, source, target)

	cached, err := c.cache.Get(ctx, key).Result()
	if err == nil {
		return Translation{Text: cached, Cached: true}, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.WarnContext(ctx, "translation cache read failed", slog.Any("error", err))
	}

	out, err := c.inner.Translate(ctx, text, source, target)
	if err != nil {
		return Translation{}, err
	}

	if err := c.cache.Set(ctx, key, out.Text, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "translation cache write failed", slog.Any("error", err))
	}
	return out, nil
}

func cacheKey(text, source, target string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s", source, target, text))
	return "translate:" + hex.EncodeToString(sum[:])
}
