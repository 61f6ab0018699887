// Copyright 2026 The LexCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rediscache layers a read-through Redis cache over the grant
// store. Grants are read on nearly every per-resource access check, so the
// hot path is the exact-triple Get.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lexcore/lexcore/internal/grant"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

// GrantCache implements grant.Store backed by a primary store, caching
// exact-triple lookups. Writes go to the primary first and then invalidate,
// so a stale cache entry can outlive a write by at most the in-flight
// window, never the TTL.
type GrantCache struct {
	primary grant.Store
	redis   *redis.Client
	ttl     time.Duration
}

// Config holds Redis connection settings for the grant cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// New connects to Redis and wraps the primary grant store.
func New(ctx context.Context, primary grant.Store, cfg Config) (*GrantCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &GrantCache{primary: primary, redis: client, ttl: ttl}, nil
}

// NewWithClient wraps the primary store using an existing Redis client.
func NewWithClient(primary grant.Store, client *redis.Client, ttl time.Duration) *GrantCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &GrantCache{primary: primary, redis: client, ttl: ttl}
}

// Close closes the Redis connection
func (c *GrantCache) Close() error {
	return c.redis.Close()
}

func cacheKey(resourceType, resourceID, memberID string) string {
	return "grant:" + grant.Key(resourceType, resourceID, memberID)
}

// Get returns the grant for the exact triple, consulting the cache first.
// Cache failures degrade to the primary store; they never fail the lookup.
func (c *GrantCache) Get(ctx context.Context, resourceType, resourceID, memberID string) (*grant.ResourceGrant, error) {
	key := cacheKey(resourceType, resourceID, memberID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var g grant.ResourceGrant
		if err := json.Unmarshal([]byte(cached), &g); err == nil {
			return &g, nil
		}
	}

	g, err := c.primary.Get(ctx, resourceType, resourceID, memberID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(g); err == nil {
		c.redis.Set(ctx, key, data, c.ttl)
	}
	return g, nil
}

// ListForMember always hits the primary store. Member listings are an admin
// surface, not the access-check hot path.
func (c *GrantCache) ListForMember(ctx context.Context, memberID string) ([]*grant.ResourceGrant, error) {
	return c.primary.ListForMember(ctx, memberID)
}

// Put writes through to the primary and invalidates the cached triple.
func (c *GrantCache) Put(ctx context.Context, g *grant.ResourceGrant) error {
	if err := c.primary.Put(ctx, g); err != nil {
		return err
	}
	c.redis.Del(ctx, cacheKey(g.ResourceType, g.ResourceID, g.MemberID))
	return nil
}

// Delete removes the grant from the primary and invalidates the cache.
func (c *GrantCache) Delete(ctx context.Context, resourceType, resourceID, memberID string) error {
	if err := c.primary.Delete(ctx, resourceType, resourceID, memberID); err != nil {
		return err
	}
	c.redis.Del(ctx, cacheKey(resourceType, resourceID, memberID))
	return nil
}
