package services

import (
	"context"
	"encoding/json"
	"time"

	"carwash-backend/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dashboardKeyPrefix = "dashboard:"

// DashboardCache keeps rendered dashboard payloads in redis. A nil client
// disables it; every method is then a no-op miss.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewDashboardCache connects to redis and pings it. When the address is empty
// or the ping fails the cache runs disabled.
func NewDashboardCache(cfg config.RedisConfig, log *zap.Logger) *DashboardCache {
	c := &DashboardCache{ttl: cfg.TTL, log: log}
	if cfg.Addr == "" {
		return c
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, dashboard cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		client.Close()
		return c
	}
	c.client = client
	return c
}

func (c *DashboardCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached JSON payload for key.
func (c *DashboardCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, dashboardKeyPrefix+key).Bytes()
	if err != nil {
		config.DashboardCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	config.DashboardCacheHits.WithLabelValues("hit").Inc()
	return data, true
}

// Set stores v as JSON under key for the configured TTL.
func (c *DashboardCache) Set(ctx context.Context, key string, v interface{}) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, dashboardKeyPrefix+key, data, c.ttl).Err(); err != nil {
		c.log.Debug("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every dashboard entry. Called after writes that change
// leads, washes, washers, attendance or expenses. The invalidation counter
// moves whether or not redis is enabled.
func (c *DashboardCache) Invalidate(ctx context.Context) {
	config.DashboardCacheInvalidations.Inc()
	if !c.Enabled() {
		return
	}
	iter := c.client.Scan(ctx, 0, dashboardKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Debug("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (c *DashboardCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
