/**
 * @description
 * Webhook event-id dedup implementations. The redis variant is the production
 * seen-set shared across payment-service replicas; the in-memory variant is
 * the single-process fallback used when redis is not configured.
 */
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 24 * time.Hour

// RedisEventDeduper stores processed event ids in redis with a TTL.
type RedisEventDeduper struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisEventDeduper creates a deduper namespaced under prefix.
func NewRedisEventDeduper(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisEventDeduper {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "fitlink:webhook_events"
	}
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &RedisEventDeduper{client: client, prefix: trimmed, ttl: ttl}
}

func (d *RedisEventDeduper) key(eventID string) string {
	return fmt.Sprintf("%s:%s", d.prefix, eventID)
}

// Seen reports whether the event id was already processed.
func (d *RedisEventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkProcessed records the event id for the configured TTL.
func (d *RedisEventDeduper) MarkProcessed(ctx context.Context, eventID string) error {
	return d.client.Set(ctx, d.key(eventID), "1", d.ttl).Err()
}

// MemoryEventDeduper is an in-process seen-set with TTL-based cleanup.
type MemoryEventDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewMemoryEventDeduper creates the fallback deduper.
func NewMemoryEventDeduper(ttl time.Duration) *MemoryEventDeduper {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &MemoryEventDeduper{seen: make(map[string]time.Time), ttl: ttl}
}

// Seen reports whether the event id was processed within the TTL window, and
// drops expired entries to keep the map bounded.
func (d *MemoryEventDeduper) Seen(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := time.Now().Add(-d.ttl)
	for id, at := range d.seen {
		if at.Before(cutoff) {
			delete(d.seen, id)
		}
	}

	_, ok := d.seen[eventID]
	return ok, nil
}

// MarkProcessed records the event id.
func (d *MemoryEventDeduper) MarkProcessed(_ context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[eventID] = time.Now()
	return nil
}
