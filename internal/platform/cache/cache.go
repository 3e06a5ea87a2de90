// Package cache connects to the Dragonfly/Redis instance that holds state
// shared between server instances, such as sibling-group version tokens.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "content"

// Options configures the client.
type Options struct {
	URL string
	// Prefix namespaces every key built with Key. Defaults to "content".
	Prefix      string
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

// Cache wraps a Redis/Dragonfly client.
type Cache struct {
	Client *redis.Client
	prefix string
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New connects and pings the cache.
func New(ctx context.Context, o Options) (*Cache, error) {
	opts, err := ParseURL(o.URL)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = cmpDuration(o.DialTimeout, 5*time.Second)
	opts.ReadTimeout = cmpDuration(o.IOTimeout, 3*time.Second)
	opts.WriteTimeout = opts.ReadTimeout

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client, prefix: prefixOrDefault(o.Prefix)}, nil
}

// Key joins parts under the cache prefix: Key("order", "version") is
// "content:order:version".
func (c *Cache) Key(parts ...string) string {
	return keyOf(c.prefix, parts...)
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func keyOf(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefixOrDefault(prefix)}, parts...), ":")
}

func prefixOrDefault(p string) string {
	if p = strings.Trim(p, ": "); p == "" {
		return defaultPrefix
	}
	return p
}

func cmpDuration(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
