package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
)

const listingKeyPrefix = "listing:active:"

// ListingCache is a read-through cache for the active-auction listing, the
// one high-frequency low-churn read in the system. Any cache failure
// degrades to a direct store read; the cache never serves stale-beyond-TTL
// or wrong data, only hits or misses.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

func NewListingCache(client *redis.Client, ttl time.Duration, log logger.Logger) *ListingCache {
	return &ListingCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// GetActiveListing returns the cached page when present, otherwise loads it
// from the store and caches the result.
func (c *ListingCache) GetActiveListing(ctx context.Context, page, pageSize int,
	load func(context.Context) (*domain.AuctionPage, error)) (*domain.AuctionPage, error) {

	key := fmt.Sprintf("%s%d:%d", listingKeyPrefix, page, pageSize)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached domain.AuctionPage
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		c.log.Warn("Discarding undecodable cached listing", "key", key)
	} else if err != redis.Nil {
		c.log.Warn("Listing cache read failed, falling back to store", "key", key, "error", err)
	}

	result, err := load(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(result)
	if err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.log.Warn("Listing cache write failed", "key", key, "error", err)
		}
	}

	return result, nil
}

// Invalidate drops all cached listing pages. Called when an auction is
// created or closed so the listing churn is visible promptly. SCAN keeps the
// iteration incremental; KEYS would block the server on a large keyspace.
func (c *ListingCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, listingKeyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("Listing cache invalidation scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("Listing cache invalidation failed", "error", err)
	}
}
