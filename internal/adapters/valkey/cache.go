// Package valkey provides the read-through cache used for reverse-geocoded
// location names and the highest-need prediction.
package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

const keyPrefix = "ptp:"

// Cache implements ports.CacheService on Valkey.
type Cache struct {
	client valkey.Client
}

// New connects to the Valkey server at addr.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get returns ports.ErrCacheMiss when key is absent.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(keyPrefix+key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get %s: %w", key, err)
	}
	return b, nil
}

// Set stores value under key. A non-positive ttl stores without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	set := c.client.B().Set().Key(keyPrefix + key).Value(valkey.BinaryString(value))
	var cmd valkey.Completed
	if ttlSeconds > 0 {
		cmd = set.Ex(time.Duration(ttlSeconds) * time.Second).Build()
	} else {
		cmd = set.Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(keyPrefix+key).Build()).Error()
}

// Ping reports whether the server answers.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func (c *Cache) Close() {
	c.client.Close()
}
