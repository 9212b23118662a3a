// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package packet

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/privarion/privariond/internal/clock"
)

const shardCount = 256

// DefaultCacheTTL is the decision cache's default entry lifetime.
const DefaultCacheTTL = 60 * time.Second

// decisionCache maps (destination-ip, destination-port, protocol) to a
// verdict. §9's open question (a) notes this key ignores the domain a
// destination IP may resolve to; the spec records this as a known
// soundness gap rather than adding unspecified reverse-DNS behavior.
type decisionCache struct {
	clk    clock.Clock
	ttl    time.Duration
	shards [shardCount]*decisionShard
}

type decisionShard struct {
	mu    sync.RWMutex
	items map[string]decisionEntry
}

func newDecisionCache(clk clock.Clock, ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &decisionCache{clk: clk, ttl: ttl}
	for i := range c.shards {
		c.shards[i] = &decisionShard{items: make(map[string]decisionEntry)}
	}
	return c
}

func decisionKey(d NetworkDestination) string {
	return fmt.Sprintf("%s|%d|%d", d.IP, d.Port, d.Protocol)
}

func (c *decisionCache) shardFor(key string) *decisionShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%shardCount]
}

func (c *decisionCache) get(d NetworkDestination) (Verdict, bool) {
	key := decisionKey(d)
	shard := c.shardFor(key)

	shard.mu.RLock()
	entry, ok := shard.items[key]
	shard.mu.RUnlock()
	if !ok || !entry.liveAt(c.clk.Now(), c.ttl) {
		return Verdict{}, false
	}
	return entry.verdict, true
}

func (c *decisionCache) put(d NetworkDestination, v Verdict) {
	key := decisionKey(d)
	shard := c.shardFor(key)

	shard.mu.Lock()
	shard.items[key] = decisionEntry{verdict: v, insertedAt: c.clk.Now()}
	shard.mu.Unlock()
}

// clear empties every shard. Invoked on ConfigSnapshot change.
func (c *decisionCache) clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.items = make(map[string]decisionEntry)
		shard.mu.Unlock()
	}
}
