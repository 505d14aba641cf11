package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "cd"

// ResultCache memoizes query results as JSON in a Store. Concurrent misses on
// the same key share a single load.
type ResultCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

func NewResultCache(store Store, ttl time.Duration, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{store: store, ttl: ttl, logger: logger}
}

type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

func (rc *ResultCache) Stats() Stats {
	if rc == nil {
		return Stats{}
	}
	return Stats{Hits: rc.hits.Load(), Misses: rc.misses.Load()}
}

// Key builds a deterministic cache key, for example
// cd:6f1c...:g2:top_deals:as_of=2026-03-31:limit=10. Argument names and
// values are query-escaped so separators inside a value cannot alias
// another argument set.
func Key(scope string, generation int64, op string, args map[string]string) string {
	sb := strings.Builder{}
	sb.WriteString(keyPrefix)
	sb.WriteString(":")
	sb.WriteString(scope)
	sb.WriteString(fmt.Sprintf(":g%d:", generation))
	sb.WriteString(op)
	if len(args) > 0 {
		keys := make([]string, 0, len(args))
		for k := range args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(":")
			sb.WriteString(url.QueryEscape(k))
			sb.WriteString("=")
			sb.WriteString(url.QueryEscape(args[k]))
		}
	}
	return sb.String()
}

// Fetch returns the cached value under key or calls load and stores its
// result. Load errors are returned as-is and never cached. Store failures
// degrade to a direct load.
func Fetch[T any](ctx context.Context, rc *ResultCache, key string, load func(context.Context) (T, error)) (T, error) {
	if rc == nil || rc.store == nil {
		return load(ctx)
	}

	if b, found, err := rc.store.Get(ctx, key); err != nil {
		rc.logger.Warn("result cache get failed", zap.String("key", key), zap.Error(err))
	} else if found {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			rc.hits.Add(1)
			return out, nil
		}
		rc.logger.Warn("result cache entry undecodable", zap.String("key", key))
	}

	// The shared load ignores caller cancellation; each caller still stops
	// waiting when its own ctx ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := rc.group.DoChan(key, func() (any, error) {
		rc.misses.Add(1)
		out, err := load(loadCtx)
		if err != nil {
			return out, err
		}
		b, err := json.Marshal(out)
		if err != nil {
			rc.logger.Warn("result cache encode failed", zap.String("key", key), zap.Error(err))
			return out, nil
		}
		if err := rc.store.Set(loadCtx, key, b, rc.ttl); err != nil {
			rc.logger.Warn("result cache set failed", zap.String("key", key), zap.Error(err))
		}
		return out, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
