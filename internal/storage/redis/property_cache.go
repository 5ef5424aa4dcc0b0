package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	goredis "github.com/redis/go-redis/v9"
)

const keyAvailable = "properties:available"

// PropertyCache keeps the available listing set that search filters in process.
type PropertyCache struct {
	client *Client
}

func NewPropertyCache(client *Client) *PropertyCache {
	return &PropertyCache{client: client}
}

// GetAvailable returns the cached listings or nil on a miss.
func (c *PropertyCache) GetAvailable(ctx context.Context) ([]*api.Listing, error) {
	if c.client == nil || c.client.rdb == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}

	data, err := c.client.rdb.Get(ctx, keyAvailable).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}

	var listings []*api.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listings: %w", err)
	}
	if listings == nil {
		listings = []*api.Listing{}
	}
	return listings, nil
}

func (c *PropertyCache) SetAvailable(ctx context.Context, listings []*api.Listing, ttl time.Duration) error {
	if c.client == nil || c.client.rdb == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	if listings == nil {
		listings = []*api.Listing{}
	}
	payload, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("failed to marshal listings: %w", err)
	}
	return c.client.rdb.Set(ctx, keyAvailable, payload, ttl).Err()
}

func (c *PropertyCache) InvalidateAvailable(ctx context.Context) error {
	if c.client == nil || c.client.rdb == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return c.client.rdb.Del(ctx, keyAvailable).Err()
}
