// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dns

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/privarion/privariond/internal/clock"
)

const shardCount = 256

// cache is a 256-way sharded, concurrent map from "domain|type" to
// cacheEntry. Sharding lets concurrent readers avoid blocking each other
// across unrelated domains, mirroring the write-exclusive/read-shared
// discipline each shard enforces on its own lock.
type cache struct {
	clk    clock.Clock
	shards [shardCount]*cacheShard
}

type cacheShard struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
}

func newCache(clk clock.Clock) *cache {
	c := &cache{clk: clk}
	for i := range c.shards {
		c.shards[i] = &cacheShard{items: make(map[string]cacheEntry)}
	}
	return c
}

func cacheKey(domain string, qtype QueryType) string {
	return fmt.Sprintf("%s|%d", domain, qtype)
}

func (c *cache) shardFor(key string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%shardCount]
}

// get returns the cached response if a live entry exists, marking Cached.
func (c *cache) get(domain string, qtype QueryType) (Response, bool) {
	key := cacheKey(domain, qtype)
	shard := c.shardFor(key)

	shard.mu.RLock()
	entry, ok := shard.items[key]
	shard.mu.RUnlock()
	if !ok || !entry.liveAt(c.clk.Now()) {
		return Response{}, false
	}

	resp := entry.response
	resp.Cached = true
	return resp, true
}

func (c *cache) put(domain string, qtype QueryType, resp Response, ttl time.Duration) {
	key := cacheKey(domain, qtype)
	shard := c.shardFor(key)

	shard.mu.Lock()
	shard.items[key] = cacheEntry{response: resp, insertedAt: c.clk.Now(), ttl: ttl}
	shard.mu.Unlock()
}

// clear empties every shard. Invoked on ConfigSnapshot change.
func (c *cache) clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.items = make(map[string]cacheEntry)
		shard.mu.Unlock()
	}
}
