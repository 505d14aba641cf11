package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"creditdash/internal/config"
)

// Open selects the backend named by cfg.Backend. The memory store is returned
// as its concrete type as well so the scheduler can sweep it.
func Open(ctx context.Context, cfg config.CacheConfig, rcfg config.RedisConfig) (Store, *MemoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		mem := NewMemoryStore()
		return mem, mem, nil
	case "redis":
		if strings.TrimSpace(rcfg.Addr) == "" {
			return nil, nil, fmt.Errorf("cache backend redis requires redis.addr")
		}
		rs := NewRedisStore(rcfg)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return rs, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
