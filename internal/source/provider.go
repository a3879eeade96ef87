// Package source fetches daily climate tables from named providers, backed by
// the disk cache, and falls back through an ordered provider list per source
// kind.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-comfort/internal/adapter/openmeteo"
	"github.com/couchcryptid/climate-comfort/internal/cache"
	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
	"golang.org/x/sync/singleflight"
)

// ErrProviderUnavailable is returned by providers that cannot run in the
// current configuration.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Provider fetches one source kind's daily table for a location.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc domain.Location, period domain.Period, refresh bool) (domain.DailyTable, domain.SourceMeta, error)
}

// Remote performs a raw Open-Meteo request.
type Remote interface {
	Fetch(ctx context.Context, req openmeteo.Request) (json.RawMessage, error)
}

// Cache stores raw provider payloads.
type Cache interface {
	Get(namespace, key string) (json.RawMessage, bool)
	GetStale(namespace, key string) (json.RawMessage, bool)
	Set(namespace, key string, data json.RawMessage) error
}

// Backend is the cache-backed fetch shared by every Open-Meteo provider.
// Concurrent requests for the same payload share one remote call.
type Backend struct {
	remote  Remote
	cache   Cache
	group   singleflight.Group
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBackend wires a remote client to the payload cache.
func NewBackend(remote Remote, c Cache, logger *slog.Logger, metrics *observability.Metrics) *Backend {
	return &Backend{remote: remote, cache: c, logger: logger, metrics: metrics}
}

// fetchResult reports how a payload was obtained.
type fetchResult struct {
	payload       json.RawMessage
	cached        bool
	cacheFallback bool
	err           string
}

// cachedFetch serves a fresh cache hit unless refresh is set, otherwise calls
// the remote and stores the payload. When the remote fails, any cached entry
// regardless of age is returned and the failure is recorded on the result.
func (b *Backend) cachedFetch(ctx context.Context, namespace string, key cache.Key, req openmeteo.Request, refresh bool) (fetchResult, error) {
	k := key.String()
	if !refresh {
		if payload, ok := b.cache.Get(namespace, k); ok {
			b.metrics.CacheLookups.WithLabelValues(namespace, "hit").Inc()
			return fetchResult{payload: payload, cached: true}, nil
		}
		b.metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
	}

	v, err, _ := b.group.Do(fmt.Sprintf("%s|%t|%s", namespace, refresh, k), func() (any, error) {
		payload, err := b.remote.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := b.cache.Set(namespace, k, payload); err != nil {
			b.logger.Warn("cache write failed", "namespace", namespace, "error", err)
		}
		return payload, nil
	})
	if err == nil {
		return fetchResult{payload: v.(json.RawMessage)}, nil
	}

	stale, ok := b.cache.GetStale(namespace, k)
	if !ok {
		return fetchResult{}, err
	}
	b.metrics.CacheLookups.WithLabelValues(namespace, "stale").Inc()
	b.logger.Warn("remote fetch failed, serving cached payload",
		"namespace", namespace, "source", key.Source, "location_id", key.LocationID, "error", err)
	return fetchResult{payload: stale, cached: true, cacheFallback: true, err: err.Error()}, nil
}

// fetchTable runs cachedFetch and decodes the payload into a table with meta.
func (b *Backend) fetchTable(ctx context.Context, namespace string, key cache.Key, req openmeteo.Request, refresh bool) (domain.DailyTable, domain.SourceMeta, error) {
	res, err := b.cachedFetch(ctx, namespace, key, req, refresh)
	if err != nil {
		return domain.DailyTable{}, domain.SourceMeta{}, err
	}
	table, err := openmeteo.Decode(res.payload, req.Variables)
	if err != nil {
		return domain.DailyTable{}, domain.SourceMeta{}, fmt.Errorf("%s: %w", key.Source, err)
	}

	meta := domain.NewSourceMeta(key.Source, key.Version, req.Period, req.Coords)
	meta.Cached = res.cached
	meta.CacheFallback = res.cacheFallback
	meta.FallbackUsed = res.cacheFallback
	meta.Error = res.err
	return table, meta, nil
}
