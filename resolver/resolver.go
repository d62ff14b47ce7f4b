// Package resolver races gateway candidates for a reference, caches
// successful payloads and coalesces concurrent resolutions of the same
// reference into one network round trip.
package resolver

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/SolomonYakubu/dop-marketplace-sub000/common"
	"github.com/SolomonYakubu/dop-marketplace-sub000/config"
	"github.com/SolomonYakubu/dop-marketplace-sub000/fetch"
	"github.com/SolomonYakubu/dop-marketplace-sub000/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// primaryBatchSize bounds how many candidates are raced concurrently.
// After the primary batch has failed, the remaining mirrors are walked
// sequentially: several gateways have already refused, so bounding
// simultaneous outbound load wins over latency. This is policy, not an
// implementation accident.
const primaryBatchSize = 3

type Resolver struct {
	logger   *zerolog.Logger
	fetcher  *fetch.Fetcher
	cache    *Cache
	inflight sync.Map
}

func NewResolver(logger *zerolog.Logger, cfg *config.ResolverConfig, fetcher *fetch.Fetcher) (*Resolver, error) {
	cache, err := NewCache(cfg.CacheTtl(), cfg.CacheMaxEntries)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		logger:  logger,
		fetcher: fetcher,
		cache:   cache,
	}, nil
}

// Cache exposes the resolution cache for session resets.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns the first successfully parsed JSON payload for reference
// across candidates, serving repeats from the cache and coalescing
// concurrent callers. Distinct references resolve fully independently; the
// only shared state is the per-reference registry entry and the cache.
func (r *Resolver) Resolve(ctx context.Context, reference string, candidates []string) (interface{}, error) {
	ctx, span := common.StartSpan(ctx, "Resolver.Resolve",
		trace.WithAttributes(attribute.Int("candidates", len(candidates))),
	)
	defer span.End()

	if payload, ok := r.cache.Get(reference); ok {
		telemetry.MetricCacheHitTotal.Inc()
		return payload, nil
	}
	telemetry.MetricCacheMissTotal.Inc()

	return executeShared(ctx, &r.inflight, reference, func(ctx context.Context) (interface{}, error) {
		// A racer may have populated the cache between our probe and
		// winning the registry slot.
		if payload, ok := r.cache.Get(reference); ok {
			telemetry.MetricCacheHitTotal.Inc()
			return payload, nil
		}

		started := time.Now()
		payload, err := r.race(ctx, reference, candidates)
		if err != nil {
			telemetry.MetricResolutionExhaustedTotal.Inc()
			return nil, err
		}

		telemetry.MetricResolutionDuration.Observe(time.Since(started).Seconds())
		r.cache.Set(reference, payload)
		return payload, nil
	})
}

type fetchOutcome struct {
	url     string
	payload interface{}
	err     error
}

// race fires the first primaryBatchSize candidates concurrently and
// accepts the first success; on total primary failure it walks the tail
// sequentially. Losing in-flight fetches are cancelled best-effort and
// their late results discarded.
func (r *Resolver) race(ctx context.Context, reference string, candidates []string) (interface{}, error) {
	if len(candidates) == 0 {
		return nil, common.NewErrResolutionExhausted(reference, 0, common.NewErrNoReference())
	}

	primary := candidates
	var tail []string
	if len(candidates) > primaryBatchSize {
		primary = candidates[:primaryBatchSize]
		tail = candidates[primaryBatchSize:]
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan fetchOutcome, len(primary))
	for _, u := range primary {
		go func(u string) {
			telemetry.MetricGatewayRequestTotal.WithLabelValues(hostOf(u), "primary").Inc()
			payload, err := r.fetcher.FetchJSON(raceCtx, u)
			if err != nil {
				telemetry.MetricGatewayErrorTotal.WithLabelValues(hostOf(u), "primary").Inc()
			}
			outcomes <- fetchOutcome{url: u, payload: payload, err: err}
		}(u)
	}

	var lastErr error
	attempts := 0
	for range primary {
		out := <-outcomes
		attempts++
		if out.err == nil {
			// First success wins; remaining fetches are cancelled via
			// raceCtx but correctness does not depend on it.
			return out.payload, nil
		}
		lastErr = out.err
		r.logger.Debug().Str("reference", reference).Str("url", out.url).Err(out.err).Msg("primary candidate failed")
	}

	for _, u := range tail {
		if ctx.Err() != nil {
			return nil, common.NewErrResolutionExhausted(reference, attempts, ctx.Err())
		}
		telemetry.MetricGatewayRequestTotal.WithLabelValues(hostOf(u), "fallback").Inc()
		payload, err := r.fetcher.FetchJSON(ctx, u)
		attempts++
		if err == nil {
			return payload, nil
		}
		telemetry.MetricGatewayErrorTotal.WithLabelValues(hostOf(u), "fallback").Inc()
		lastErr = err
		r.logger.Debug().Str("reference", reference).Str("url", u).Err(err).Msg("fallback candidate failed")
	}

	return nil, common.NewErrResolutionExhausted(reference, attempts, lastErr)
}

func hostOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Host
}
