package providers

import (
	"context"
	"encoding/json"
	"time"

	"CryptoPulse/internal/domain/models"
	domsvc "CryptoPulse/internal/domain/service"
	pkgcache "CryptoPulse/pkg/cache"
)

// CachedProvider serves recent snapshots from the cache layer so frequent
// schedules and the on-demand API do not hammer the upstream APIs.
// Only successful snapshots are cached.
type CachedProvider struct {
	inner domsvc.SnapshotProvider
	cache pkgcache.Service
	ttl   time.Duration
}

func WithCache(inner domsvc.SnapshotProvider, c pkgcache.Service, ttl time.Duration) domsvc.SnapshotProvider {
	if c == nil || ttl <= 0 {
		return inner
	}
	return &CachedProvider{inner: inner, cache: c, ttl: ttl}
}

func (p *CachedProvider) Name() string              { return p.inner.Name() }
func (p *CachedProvider) Kind() domsvc.ProviderKind { return p.inner.Kind() }

func (p *CachedProvider) Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	key := pkgcache.GenerateKeyWithParams("snap", p.inner.Name(), symbol)

	// snapshots are cached as JSON strings so both cache layers handle them
	var raw string
	if err := p.cache.Get(ctx, key, &raw); err == nil && raw != "" {
		var cached models.MarketSnapshot
		if json.Unmarshal([]byte(raw), &cached) == nil && cached.OK {
			return &cached, nil
		}
	}

	snap, err := p.inner.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if snap != nil && snap.OK {
		if b, merr := json.Marshal(snap); merr == nil {
			_ = p.cache.Set(ctx, key, string(b), p.ttl)
		}
	}
	return snap, nil
}
