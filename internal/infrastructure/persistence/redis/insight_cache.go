package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/dharanesh-gopal/extra-curricular-module/pkg/circuitbreaker"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// INSIGHT CACHE
// ══════════════════════════════════════════════════════════════════════════════

// InsightCache stores computed analytics results keyed by a digest of the
// request. The engines are deterministic over their inputs, so the same
// request within the TTL window yields the same result and the computation
// (and its database reads) can be skipped.
//
// All operations are best-effort behind a circuit breaker: a degraded Redis
// degrades to cache misses, never to request failures.
type InsightCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewInsightCache creates an InsightCache on top of the given cache client.
func NewInsightCache(cache *Cache, log *logger.Logger) *InsightCache {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("insight_cache"))

	breaker := circuitbreaker.New(
		"insight-cache",
		circuitbreaker.WithFailureThreshold(3),
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("cache circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		}),
	)

	return &InsightCache{cache: cache, breaker: breaker, log: log}
}

// RequestDigest returns the hex SHA-256 of the request's JSON encoding.
// The request types marshal with deterministic field order, so equal
// requests always digest equally.
func RequestDigest(request any) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// GetResult returns the cached result for a request digest, or ok=false on
// miss or cache degradation.
func (ic *InsightCache) GetResult(ctx context.Context, modelType, digest string) (json.RawMessage, bool) {
	var result json.RawMessage

	err := ic.breaker.Execute(ctx, func(ctx context.Context) error {
		raw, err := ic.cache.GetString(ctx, InsightKey(modelType, digest))
		if err != nil {
			return err
		}
		result = json.RawMessage(raw)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			ic.log.Warn("cache read failed", logger.String("model_type", modelType), logger.Err(err))
		}
		return nil, false
	}

	return result, true
}

// StoreResult caches a computed result under the request digest. Failures
// are logged, never propagated.
func (ic *InsightCache) StoreResult(ctx context.Context, modelType, digest string, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		ic.log.Warn("cache encode failed", logger.String("model_type", modelType), logger.Err(err))
		return
	}

	err = ic.breaker.Execute(ctx, func(ctx context.Context) error {
		return ic.cache.SetString(ctx, InsightKey(modelType, digest), string(data), TTLInsightCache)
	})
	if err != nil && !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		ic.log.Warn("cache write failed", logger.String("model_type", modelType), logger.Err(err))
	}
}

// StoreCohortInsight caches a scheduled cohort clustering result for an
// activity.
func (ic *InsightCache) StoreCohortInsight(ctx context.Context, activityID int64, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		ic.log.Warn("cohort insight encode failed", logger.ActivityID(activityID), logger.Err(err))
		return
	}

	err = ic.breaker.Execute(ctx, func(ctx context.Context) error {
		return ic.cache.SetString(ctx, CohortKey(activityID), string(data), TTLCohortInsight)
	})
	if err != nil && !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		ic.log.Warn("cohort insight write failed", logger.ActivityID(activityID), logger.Err(err))
	}
}

// GetCohortInsight returns the cached cohort insight for an activity, or
// ok=false when absent.
func (ic *InsightCache) GetCohortInsight(ctx context.Context, activityID int64) (json.RawMessage, bool) {
	var result json.RawMessage

	err := ic.breaker.Execute(ctx, func(ctx context.Context) error {
		raw, err := ic.cache.GetString(ctx, CohortKey(activityID))
		if err != nil {
			return err
		}
		result = json.RawMessage(raw)
		return nil
	})
	if err != nil {
		return nil, false
	}

	return result, true
}

// Invalidate drops all cached results for one model type.
func (ic *InsightCache) Invalidate(ctx context.Context, modelType string) error {
	return ic.breaker.Execute(ctx, func(ctx context.Context) error {
		return ic.cache.DeleteByPattern(ctx, PrefixInsight+modelType+":*")
	})
}

// Healthy reports whether the cache circuit is closed.
func (ic *InsightCache) Healthy() bool {
	return ic.breaker.IsClosed()
}
