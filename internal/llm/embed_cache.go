package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedEmbedder memoizes embedding calls. The same demand-signal phrases
// recur constantly across channels, and embeddings for a fixed model are
// stable, so a short TTL cache cuts most of the embedding spend.
type CachedEmbedder struct {
	inner Embedder
	cache *gocache.Cache
}

// NewCachedEmbedder wraps an embedder with a TTL cache
func NewCachedEmbedder(inner Embedder, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedEmbedder{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Embed returns a cached vector when available, otherwise delegates
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cacheKey(text)
	if cached, found := e.cache.Get(key); found {
		return cached.([]float64), nil
	}

	vector, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Set(key, vector, gocache.DefaultExpiration)
	return vector, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
