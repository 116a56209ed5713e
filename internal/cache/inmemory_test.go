package cache

import (
	"context"
	"testing"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	c := NewInMemoryCache(cfg, logger.NewNoopLogger())

	key := GenerateKey(PrefixUsageSnapshot, "biz_1")
	assert.Equal(t, "usage_snapshot:v1::biz_1", key)

	c.Set(ctx, key, 42, time.Minute)
	v, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	c.Set(ctx, GenerateKey(PrefixUsageSnapshot, "biz_2"), 7, 0)
	c.Set(ctx, GenerateKey(PrefixBusiness, "biz_1"), "acme", 0)
	c.DeleteByPrefix(ctx, PrefixUsageSnapshot)

	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixBusiness, "biz_1"))
	assert.True(t, ok)
}

func TestDisabledCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg, logger.NewNoopLogger())

	c.Set(ctx, "k", "v", time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
